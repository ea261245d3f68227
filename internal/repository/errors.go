package repository

import "errors"

// ErrNotFound is returned when the requested driver profile does not exist.
var ErrNotFound = errors.New("record not found")
