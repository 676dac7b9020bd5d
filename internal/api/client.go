// Package api implements the HTTP client for the remote workout backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"example.com/gymsession/internal/domain"
)

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: unexpected status %d: %s", e.Code, e.Body)
}

// Client talks to the workout backend over HTTP/JSON. All methods take a
// context and return explicit errors; background callers absorb them,
// user-initiated callers surface them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	instanceID string
	token      *tokenHolder
}

// Option configures optional behaviour for the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit bounds outgoing request rate. Manual fetch actions share the
// same budget as the background pollers.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient constructs a Client against the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		instanceID: uuid.NewString(),
		token:      &tokenHolder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoginResponse carries the authenticated user and the session bearer token.
type LoginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Login authenticates and retains the returned bearer token for subsequent
// calls.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	body := map[string]string{"username": username, "password": password}

	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/login", nil, body, &resp); err != nil {
		return domain.User{}, err
	}
	if resp.Token != "" {
		c.token.set(resp.Token)
	}
	return resp.User, nil
}

// SignUpInput is the payload for account creation.
type SignUpInput struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Gender   string  `json:"gender"`
	Birthday string  `json:"birthday"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}

// SignUp creates a new account server-side.
func (c *Client) SignUp(ctx context.Context, input SignUpInput) (domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodPost, "/signup", nil, input, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateUser pushes edited profile fields to the backend.
func (c *Client) UpdateUser(ctx context.Context, user domain.User) (domain.User, error) {
	var updated domain.User
	path := fmt.Sprintf("/users/%d", user.ID)
	if err := c.do(ctx, http.MethodPut, path, nil, user, &updated); err != nil {
		return domain.User{}, err
	}
	return updated, nil
}

// CheckIn opens a visit for the user. The request carries an idempotency key
// so a retried call cannot open two visits.
func (c *Client) CheckIn(ctx context.Context, userID int64, at time.Time) error {
	body := map[string]any{
		"user_id":  userID,
		"check_in": at.UTC().Format(time.RFC3339),
	}
	headers := map[string]string{"Idempotency-Key": uuid.NewString()}
	return c.doWithHeaders(ctx, http.MethodPost, "/visits/checkin", nil, headers, body, nil)
}

// CheckOut closes the open visit and returns the completed record.
func (c *Client) CheckOut(ctx context.Context, userID int64, at time.Time) (domain.Visit, error) {
	body := map[string]any{
		"user_id":   userID,
		"check_out": at.UTC().Format(time.RFC3339),
	}
	var visit domain.Visit
	if err := c.do(ctx, http.MethodPost, "/visits/checkout", nil, body, &visit); err != nil {
		return domain.Visit{}, err
	}
	return visit, nil
}

// LastVisit returns the most recent visit record, or nil when the user has
// never checked in.
func (c *Client) LastVisit(ctx context.Context, userID int64) (*domain.Visit, error) {
	query := url.Values{"user_id": {strconv.FormatInt(userID, 10)}}
	var visit *domain.Visit
	if err := c.do(ctx, http.MethodGet, "/visits/last", query, nil, &visit); err != nil {
		return nil, err
	}
	return visit, nil
}

// TodayFeedback fetches the full per-set feedback list for today, including
// stored object keys.
func (c *Client) TodayFeedback(ctx context.Context, userID int64, exercise string) ([]domain.FeedbackEntry, error) {
	path := fmt.Sprintf("/workouts/users/%d/today", userID)
	query := url.Values{"exercise": {exercise}}
	var entries []domain.FeedbackEntry
	if err := c.do(ctx, http.MethodGet, path, query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// LatestFeedback is the lightweight readiness poll variant of TodayFeedback.
func (c *Client) LatestFeedback(ctx context.Context, userID int64, exercise string) ([]domain.FeedbackEntry, error) {
	query := url.Values{
		"user_id":  {strconv.FormatInt(userID, 10)},
		"exercise": {exercise},
	}
	var entries []domain.FeedbackEntry
	if err := c.do(ctx, http.MethodGet, "/workouts/user", query, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// PresignUpload requests a time-limited PUT URL for a derived upload key.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	query := url.Values{"key": {key}, "content_type": {contentType}}
	return c.presign(ctx, "/s3/presign", query)
}

// PresignDownload requests a time-limited GET URL for a stored object key.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, error) {
	query := url.Values{"key": {key}}
	return c.presign(ctx, "/s3/presigned-url", query)
}

// AnalyzedVideoQuery locates an analyzed result video by date and set number.
type AnalyzedVideoQuery struct {
	UserID   int64
	DateYMD  string // yyyyMMdd
	SetNo    int
	Exercise string
	Download bool
}

// AnalyzedVideoURL resolves the presigned URL of an analyzed set video.
func (c *Client) AnalyzedVideoURL(ctx context.Context, q AnalyzedVideoQuery) (string, error) {
	query := url.Values{
		"user_id":  {strconv.FormatInt(q.UserID, 10)},
		"yyyymmdd": {q.DateYMD},
		"set_no":   {strconv.Itoa(q.SetNo)},
		"exercise": {q.Exercise},
		"download": {strconv.FormatBool(q.Download)},
	}
	return c.presign(ctx, "/workouts/analyzed-url-by-date", query)
}

// TodayReps returns the rep count the analysis pipeline has recognised today
// for one exercise type.
func (c *Client) TodayReps(ctx context.Context, userID int64, exercise string) (int, error) {
	path := fmt.Sprintf("/workouts/users/%d/today/%s-reps", userID, exercise)
	var resp struct {
		Reps int `json:"reps"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Reps, nil
}

func (c *Client) presign(ctx context.Context, path string, query url.Values) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, path, query, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	return c.doWithHeaders(ctx, method, path, query, nil, body, out)
}

func (c *Client) doWithHeaders(ctx context.Context, method, path string, query url.Values, headers map[string]string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Client-Instance", c.instanceID)
	if token := c.token.get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
