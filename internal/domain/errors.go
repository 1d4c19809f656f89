package domain

import "errors"

// Sentinel errors shared across services. Services wrap these with
// fmt.Errorf("%w: ...") to add detail; the HTTP layer maps them with errors.Is.
var (
	// ErrValidation is returned when input is malformed; correcting the input makes the call succeed.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when the referenced slot or booking does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller does not own the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrCapacityExceeded is returned when an update would set max_students below current_bookings.
	ErrCapacityExceeded = errors.New("capacity below confirmed bookings")

	// ErrSlotFull is returned when a booking would exceed the slot capacity.
	ErrSlotFull = errors.New("slot is full")

	// ErrDuplicateBooking is returned when the student already holds a confirmed booking for the slot.
	ErrDuplicateBooking = errors.New("active booking already exists for this slot")

	// ErrSlotInactive is returned when booking a slot the teacher has deactivated.
	ErrSlotInactive = errors.New("slot is not active")

	// ErrAlreadyCancelled is returned when cancelling a booking that is already
	// cancelled. It marks an idempotent no-op, not a true failure.
	ErrAlreadyCancelled = errors.New("booking already cancelled")

	// ErrSlotHasBookings is returned when deleting a slot that still has confirmed bookings.
	ErrSlotHasBookings = errors.New("slot has confirmed bookings")
)
