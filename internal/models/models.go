package models

import "time"

// Security event types recorded by the abuse-detection paths.
const (
	EventFailedLogin   = "failed_login"
	EventRateLimit     = "rate_limit"
	EventRecaptchaFail = "recaptcha_fail"
)

// PageView is one tracked client-side navigation. The visitor IP is never
// stored; IPHash is a day-salted one-way hash so same-day uniqueness can be
// counted without a stable cross-day identifier.
type PageView struct {
	ID        string    `json:"id" db:"id"`
	Path      string    `json:"path" db:"path"`
	Referrer  string    `json:"referrer" db:"referrer"`
	Browser   string    `json:"browser" db:"browser"`
	OS        string    `json:"os" db:"os"`
	Device    string    `json:"device" db:"device"` // desktop | mobile | tablet
	IPHash    string    `json:"ipHash" db:"ip_hash"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SecurityEvent is an append-only abuse record. Unlike page views it keeps
// the raw IP: these rows exist to act on (blocking), not to aggregate.
type SecurityEvent struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`
	IP        string    `json:"ip" db:"ip"`
	Detail    string    `json:"detail" db:"detail"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Message is a contact form submission shown in the admin inbox.
type Message struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Setting is a string-valued feature flag ("true"/"false").
type Setting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}

// User is an admin account. Password holds a bcrypt hash.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Principal identifies an authenticated admin for the rest of a request.
type Principal struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}
