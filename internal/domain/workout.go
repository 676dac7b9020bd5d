package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MemoNoFeedback is the memo shown for a set the backend has not analyzed yet.
const MemoNoFeedback = "no feedback"

// WorkoutSet is one recorded unit of an exercise. Sets live only in agent
// memory while a recording session is active; they are never persisted
// locally. S3Key is derived client-side before upload.
type WorkoutSet struct {
	SetIndex    int    `json:"set_index"`
	Weight      string `json:"weight"`
	Reps        string `json:"reps"`
	Memo        string `json:"memo"`
	S3Key       string `json:"s3_key"`
	HasFeedback bool   `json:"has_feedback"`
}

// Feedback is the server-computed analysis result for one uploaded set video.
type Feedback struct {
	Depth  string         `json:"depth"`
	Score  float64        `json:"score"`
	Counts map[string]int `json:"counts"`
}

// FeedbackEntry is one element of the ordered per-set feedback list returned
// by the backend. Position in the list is the only correlation key back to
// local sets.
type FeedbackEntry struct {
	Feedback *Feedback `json:"feedback"`
	S3Key    string    `json:"s3_key,omitempty"`
}

// Memo renders a feedback record into the single-line memo attached to a set.
// A nil receiver yields MemoNoFeedback.
func (f *Feedback) Memo() string {
	if f == nil || f.Depth == "" {
		return MemoNoFeedback
	}

	var b strings.Builder
	b.WriteString(f.Depth)
	if f.Score != 0 {
		fmt.Fprintf(&b, " (score: %g)", f.Score)
	}
	if len(f.Counts) > 0 {
		parts := make([]string, 0, len(f.Counts))
		keys := make([]string, 0, len(f.Counts))
		for k := range f.Counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if f.Counts[k] > 0 {
				parts = append(parts, fmt.Sprintf("%s: %d", k, f.Counts[k]))
			}
		}
		if len(parts) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
		}
	}
	return b.String()
}

// UploadTimestamp renders t in the compact yyyyMMddHHmmss form the analysis
// pipeline expects inside upload keys.
func UploadTimestamp(t time.Time) string {
	return t.Format("20060102150405")
}

// BuildUploadKey derives the object-storage key for a set video. The backend
// pipeline parses user id, name, weight and timestamp back out of the key, so
// the shape is fixed: fitvideo/{id}_{name}_{weight}_{ts}.mp4.
func BuildUploadKey(user User, weightKg string, t time.Time) string {
	name := sanitizeName(user.Username)
	if weightKg == "" {
		weightKg = "0"
	}
	return fmt.Sprintf("fitvideo/%d_%s_%s_%s.mp4", user.ID, name, weightKg, UploadTimestamp(t))
}

// sanitizeName strips characters that would break key parsing downstream.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '/', ' ':
			return '-'
		default:
			return r
		}
	}, name)
}
