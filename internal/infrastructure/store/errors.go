package store

import "errors"

// ErrNotFound is returned by Get when the requested key has no stored value.
var ErrNotFound = errors.New("store: setting not found")
