package domain

import (
	"context"
	"time"
)

// BookingStatus is the lifecycle state of a booking. The only transition is
// confirmed -> cancelled; cancelled is terminal.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a single student's reservation of one seat in one slot.
// Bookings are never physically deleted; cancellation is a status change so
// rosters and history stay auditable.
// swagger:model Booking
type Booking struct {
	ID        string        `json:"id"`
	SlotID    string        `json:"slot_id"`
	StudentID string        `json:"student_id"`
	Notes     *string       `json:"notes"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewBooking returns a confirmed Booking. ID is set by the repository on create.
func NewBooking(slotID, studentID string, notes *string, createdAt, updatedAt time.Time) *Booking {
	return &Booking{
		SlotID:    slotID,
		StudentID: studentID,
		Notes:     notes,
		Status:    BookingStatusConfirmed,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// BookingWithSlot bundles a booking with its slot for student history views.
type BookingWithSlot struct {
	Booking *Booking `json:"booking"`
	Slot    *Slot    `json:"slot"`
}

// BookingRepository defines storage operations for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	// GetActiveBySlotAndStudent returns the confirmed booking for the pair, or ErrNotFound.
	GetActiveBySlotAndStudent(ctx context.Context, slotID, studentID string) (*Booking, error)
	// MarkCancelled flips a confirmed booking to cancelled. It returns
	// ErrAlreadyCancelled when the booking is not currently confirmed.
	MarkCancelled(ctx context.Context, id string) error
	ListByStudent(ctx context.Context, studentID string, p PaginationParams) ([]*Booking, int, error)
	// ListConfirmedBySlot returns confirmed bookings ordered by creation time ascending.
	ListConfirmedBySlot(ctx context.Context, slotID string) ([]*Booking, error)
}

// BookingService defines the reservation lifecycle. CreateBooking and
// CancelBooking run as a single atomic unit against the slot counter and the
// booking table; two concurrent creates against the last seat yield exactly
// one success and one ErrSlotFull.
type BookingService interface {
	CreateBooking(ctx context.Context, slotID, studentID, studentEmail string, notes *string) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID, studentID, studentEmail string) error
	// ListForStudent returns the student's bookings in all statuses, newest
	// first, each bundled with its slot.
	ListForStudent(ctx context.Context, studentID string, p PaginationParams) ([]*BookingWithSlot, int, error)
	// ListForSlot is the teacher roster view: confirmed bookings only,
	// first-booked-first-listed. Only the owning teacher may call it.
	ListForSlot(ctx context.Context, slotID, teacherID string) ([]*Booking, error)
}
