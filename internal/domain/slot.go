package domain

import (
	"context"
	"time"
)

// Slot is a scheduled, capacity-bounded lab session published by a teacher
// for a grade level. current_bookings is mutated only through the repository's
// IncrementBooked/DecrementBooked inside a booking transaction; it always
// equals the number of confirmed bookings referencing the slot.
// swagger:model Slot
type Slot struct {
	ID              string    `json:"id"`
	TeacherID       string    `json:"teacher_id"`
	TeacherName     string    `json:"teacher_name"`
	Level           int       `json:"level"`
	Date            time.Time `json:"date"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Topic           string    `json:"topic"`
	Description     *string   `json:"description"`
	Location        string    `json:"location"`
	MaxStudents     int       `json:"max_students"`
	CurrentBookings int       `json:"current_bookings"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSlot returns a new Slot with currentBookings 0 and isActive true.
// ID is set by the repository on create.
func NewSlot(teacherID, teacherName string, level int, date, startTime, endTime time.Time, topic string, description *string, location string, maxStudents int, createdAt, updatedAt time.Time) *Slot {
	return &Slot{
		TeacherID:       teacherID,
		TeacherName:     teacherName,
		Level:           level,
		Date:            date,
		StartTime:       startTime,
		EndTime:         endTime,
		Topic:           topic,
		Description:     description,
		Location:        location,
		MaxStudents:     maxStudents,
		CurrentBookings: 0,
		IsActive:        true,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}
}

// Duration is derived from the start and end times, never stored.
func (s *Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// SeatsLeft returns the remaining capacity.
func (s *Slot) SeatsLeft() int {
	return s.MaxStudents - s.CurrentBookings
}

// SlotUpdate describes a partial update of a slot. Nil fields keep their
// current value.
type SlotUpdate struct {
	Level       *int
	Date        *time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	Topic       *string
	Description *string
	Location    *string
	MaxStudents *int
}

// SlotRepository defines the interface for slot storage.
// GetByIDForUpdate locks the slot row for the remainder of the surrounding
// transaction; booking flows use it to serialize per slot.
type SlotRepository interface {
	Create(ctx context.Context, slot *Slot) error
	GetByID(ctx context.Context, id string) (*Slot, error)
	GetByIDForUpdate(ctx context.Context, id string) (*Slot, error)
	Update(ctx context.Context, slot *Slot) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	ListAvailable(ctx context.Context, level int) ([]*Slot, error)
	ListByTeacher(ctx context.Context, teacherID string, p PaginationParams) ([]*Slot, int, error)
	// IncrementBooked adds one seat; it fails with ErrSlotFull when the slot is
	// at capacity. DecrementBooked removes one seat and floors at zero.
	IncrementBooked(ctx context.Context, id string) error
	DecrementBooked(ctx context.Context, id string) error
}

// SlotService defines the business logic for the slot catalog.
type SlotService interface {
	CreateSlot(ctx context.Context, slot *Slot) error
	UpdateSlot(ctx context.Context, slotID, teacherID string, upd SlotUpdate) (*Slot, error)
	SetActive(ctx context.Context, slotID, teacherID string, active bool) error
	// DeleteSlot removes a slot. Deletion is rejected with ErrSlotHasBookings
	// while confirmed bookings exist; teachers deactivate instead.
	DeleteSlot(ctx context.Context, slotID, teacherID string) error
	// ListAvailable returns active slots for the level with seats remaining,
	// ordered by date and start time ascending.
	ListAvailable(ctx context.Context, level int) ([]*Slot, error)
	ListByTeacher(ctx context.Context, teacherID string, p PaginationParams) ([]*Slot, int, error)
	GetSlot(ctx context.Context, slotID string) (*Slot, error)
}
