package entity

import "time"

// IdempotencyTTL is how long a stored response shadows its key.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord caches the response of a keyed client mutation so a
// retry with the same key replays the original response verbatim.
type IdempotencyRecord struct {
	Key       string    `json:"key"`
	Response  []byte    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewIdempotencyRecord -.
func NewIdempotencyRecord(key string, response []byte, ttl time.Duration) *IdempotencyRecord {
	now := time.Now()

	return &IdempotencyRecord{
		Key:       key,
		Response:  response,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired -.
func (r *IdempotencyRecord) Expired() bool {
	return time.Now().After(r.ExpiresAt)
}
