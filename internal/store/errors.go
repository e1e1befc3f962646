package store

import "errors"

// ErrNotFound is returned by write-path operations (Update, Delete) when the
// target row does not exist. Reads report absence as a nil result instead.
var ErrNotFound = errors.New("not found")
