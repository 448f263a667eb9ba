// Package repository contains the data access layer.  This file defines
// error values shared across repositories.  Sentinel errors let handlers
// and the booking manager distinguish failure scenarios with errors.Is
// without inspecting driver-specific error strings.
package repository

import "errors"

// ErrRestaurantNotFound is returned when a restaurant lookup matches no row.
var ErrRestaurantNotFound = errors.New("restaurant not found")

// ErrBranchNotFound is returned when a branch lookup matches no row.
var ErrBranchNotFound = errors.New("branch not found")

// ErrSlotNotFound is returned when a time slot lookup matches no row.
var ErrSlotNotFound = errors.New("time slot not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSessionNotFound is returned by the session store when a token does
// not resolve to a live session (missing, expired or malformed).
var ErrSessionNotFound = errors.New("session not found")
