package models

// UserStats holds the counters shown on a user's profile.
type UserStats struct {
	Messages  int64 `json:"messages"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
	Likes     int64 `json:"likes"`
}
