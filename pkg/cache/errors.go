package cache

import "errors"

var (
	// ErrInvalidKey is returned by Set when the key is empty.
	ErrInvalidKey = errors.New("cache key must be a non-empty string")

	// ErrInvalidValue is returned by Set when the top level value is the
	// Undefined marker. Undefined nested inside an array or object is legal.
	ErrInvalidValue = errors.New("cannot cache undefined value")

	// ErrInvalidExpiration is returned by Set when the expiration modifier is
	// neither a finite number of relative milliseconds, a time.Duration, nor
	// an absolute time.Time.
	ErrInvalidExpiration = errors.New("expiration is not a finite duration or an absolute time")
)
