// Package domain defines the entities mirrored from the workout backend.
package domain

// User is the current session user as returned by the backend. The agent
// never creates or mutates users locally; it only mirrors the server record.
type User struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Phone    string  `json:"phone"`
	Gender   string  `json:"gender"`
	Birthday string  `json:"birthday"`
	HeightCM float64 `json:"height_cm"`
	WeightKG float64 `json:"weight_kg"`
}
