package session

import "time"

// Record is the resolved content of a session hash.
type Record struct {
	Token     string
	Account   string
	LoginTime time.Time
}
