package session

import (
	"context"
	"time"
)

// Device describes the client software that opened a session, parsed
// from the User-Agent header.
type Device struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Class   string `json:"class"`
}

// Location is a coarse geolocation of the session's originating IP.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Session is the record stored under session:{id}. The TTL lives at the
// storage layer, not in the payload.
type Session struct {
	ID         string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	IP         string    `json:"ip"`
	Device     Device    `json:"device"`
	Location   Location  `json:"location"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// DeviceParser classifies a User-Agent string. Implementations never
// fail; unparseable input yields Unknown fields.
type DeviceParser interface {
	Parse(userAgent string) Device
}

// LocationProvider resolves an IP to a coarse location. Implementations
// never fail and must bound their own lookup time; unresolvable
// addresses yield Unknown fields.
type LocationProvider interface {
	Lookup(ctx context.Context, ip string) Location
}
