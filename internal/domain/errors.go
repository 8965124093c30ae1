package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream unavailable")
	ErrNoSnapshot   = errors.New("no snapshot available")
	ErrLockHeld     = errors.New("lock held")
)
