package models

import "errors"

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrCorruptCredential = errors.New("stored credential is malformed")
	ErrInvalidStatus     = errors.New("invalid account status")
	ErrAccountNotActive  = errors.New("account is not active")
	ErrPasswordRequired  = errors.New("password is required")
)

var (
	ErrSessionStoreUnavailable = errors.New("session store unavailable")
	ErrSessionEncoding         = errors.New("session encoding error")
)

var (
	ErrCacheUnavailable = errors.New("cache unavailable")
	ErrCacheEncoding    = errors.New("cache encoding error")
)

var (
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrConfiguration         = errors.New("configuration error")
)

var (
	ErrDatabaseQuery  = errors.New("database query error")
	ErrDatabaseInsert = errors.New("database insert error")
	ErrDatabaseUpdate = errors.New("database update error")
	ErrMailPublish    = errors.New("error publishing mail message")
)
