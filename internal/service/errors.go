package service

import "errors"

var (
	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrInvalidLimit is returned when a negative driver limit is requested.
	ErrInvalidLimit = errors.New("invalid limit")

	// ErrDiscoveryFailed is returned when drivers cannot be enumerated at
	// all. A run cannot start without it.
	ErrDiscoveryFailed = errors.New("driver discovery failed")

	// ErrDriverLocked is returned when another run holds the driver's
	// reconciliation lock.
	ErrDriverLocked = errors.New("driver is being reconciled by another run")
)
