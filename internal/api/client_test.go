package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginRetainsBearerToken(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "jane", body["username"])
			writeJSON(t, w, map[string]any{
				"user":  map[string]any{"id": 42, "username": "jane"},
				"token": "header.payload.sig",
			})
		case "/visits/last":
			authHeader = r.Header.Get("Authorization")
			writeJSON(t, w, nil)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	user, err := client.Login(context.Background(), "jane", "secret")
	require.NoError(t, err)
	require.Equal(t, int64(42), user.ID)

	_, err = client.LastVisit(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, "Bearer header.payload.sig", authHeader)
}

func TestCheckInSendsIdempotencyKey(t *testing.T) {
	var gotKey string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/visits/checkin", r.URL.Path)
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	at := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, client.CheckIn(context.Background(), 7, at))
	require.NotEmpty(t, gotKey)
	require.Equal(t, float64(7), gotBody["user_id"])
	require.Equal(t, "2025-06-01T09:30:00Z", gotBody["check_in"])
}

func TestCheckOutDecodesVisit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/visits/checkout", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"user_id":   7,
			"check_in":  "2025-06-01T09:30:00Z",
			"check_out": "2025-06-01T11:00:00Z",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	visit, err := client.CheckOut(context.Background(), 7, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(7), visit.UserID)
	require.NotNil(t, visit.CheckOut)
	require.False(t, visit.Open())
}

func TestLastVisitHandlesNull(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "7", r.URL.Query().Get("user_id"))
		writeJSON(t, w, nil)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	visit, err := client.LastVisit(context.Background(), 7)
	require.NoError(t, err)
	require.Nil(t, visit)
}

func TestLatestFeedbackDecodesOrderedList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/workouts/user", r.URL.Path)
		require.Equal(t, "squat", r.URL.Query().Get("exercise"))
		writeJSON(t, w, []map[string]any{
			{"feedback": map[string]any{"depth": "good depth", "score": 91}},
			{"feedback": nil},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	entries, err := client.LatestFeedback(context.Background(), 7, "squat")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Feedback)
	require.Equal(t, "good depth", entries[0].Feedback.Depth)
	require.Nil(t, entries[1].Feedback)
}

func TestPresignEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/s3/presign":
			require.Equal(t, "fitvideo/a.mp4", r.URL.Query().Get("key"))
			require.Equal(t, "video/mp4", r.URL.Query().Get("content_type"))
			writeJSON(t, w, map[string]string{"url": "http://storage/put"})
		case "/s3/presigned-url":
			writeJSON(t, w, map[string]string{"url": "http://storage/get"})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL)

	putURL, err := client.PresignUpload(context.Background(), "fitvideo/a.mp4", "video/mp4")
	require.NoError(t, err)
	require.Equal(t, "http://storage/put", putURL)

	getURL, err := client.PresignDownload(context.Background(), "fitvideo/a.mp4")
	require.NoError(t, err)
	require.Equal(t, "http://storage/get", getURL)
}

func TestNonSuccessBecomesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "visit already open", http.StatusConflict)
	}))
	defer server.Close()

	client := NewClient(server.URL)

	err := client.CheckIn(context.Background(), 7, time.Now())
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusConflict, statusErr.Code)
	require.Contains(t, statusErr.Body, "visit already open")
}

func TestTokenExpiryFromUnverifiedClaims(t *testing.T) {
	client := NewClient("http://unused")

	_, ok := client.TokenExpiry()
	require.False(t, ok, "no token held yet")

	// {"alg":"HS256","typ":"JWT"}.{"exp":4102444800}
	client.SetToken("eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.eyJleHAiOjQxMDI0NDQ4MDB9.c2ln")
	exp, ok := client.TokenExpiry()
	require.True(t, ok)
	require.Equal(t, int64(4102444800), exp.Unix())

	client.ClearToken()
	_, ok = client.TokenExpiry()
	require.False(t, ok)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}
