// Package ratelimit enforces a sliding-window request quota keyed by caller
// identifier. Two backends share the same semantics: an in-process store for
// single-node deployments and a Redis store when multiple instances must
// share quota.
//
// A sliding window (trailing windowMs from "now") is used instead of fixed
// buckets: fixed windows allow twice the limit to land around a boundary.
package ratelimit

import (
	"context"
	"time"
)

// Categories namespace keys so one caller exhausting the contact quota does
// not also burn the tracking quota.
const (
	CategoryContact = "contact"
	CategoryTrack   = "track"
	CategoryAuth    = "auth"
)

// Result reports the admission decision for one request.
type Result struct {
	Allowed bool
}

// Limiter is the admission check run before any rate-limited handler. A
// backend failure surfaces as (denied, err): rate limiting is a security
// control, so an unreachable store must not grant unlimited access.
type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
	Close() error
}

// Key builds the canonical "<category>:<ip>" caller identifier.
func Key(category, ip string) string {
	return category + ":" + ip
}

// Policy carries the window parameters shared by both backends.
type Policy struct {
	MaxRequests int
	Window      time.Duration
}
