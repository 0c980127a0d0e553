package domain

import "time"

// Session is the persisted admin login record. Timestamp is milliseconds since
// the Unix epoch.
type Session struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	Timestamp       int64 `json:"timestamp"`
}

// IssuedAt converts the stored timestamp to a time.
func (s Session) IssuedAt() time.Time { return time.UnixMilli(s.Timestamp) }

// Expired reports whether the session is older than ttl at now. A session
// exactly ttl old is still valid.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.IssuedAt()) > ttl
}
