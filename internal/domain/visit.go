package domain

import "time"

// Visit is a server-tracked gym visit. CheckOut is nil while the visit is
// still open; the backend enforces at most one open visit per user.
type Visit struct {
	UserID   int64      `json:"user_id"`
	CheckIn  time.Time  `json:"check_in"`
	CheckOut *time.Time `json:"check_out"`
}

// Open reports whether the visit has a check-in but no check-out yet.
func (v *Visit) Open() bool {
	return v != nil && !v.CheckIn.IsZero() && v.CheckOut == nil
}
