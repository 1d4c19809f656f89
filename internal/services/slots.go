package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"labbooking/internal/domain"
)

type slotService struct {
	slotRepo       domain.SlotRepository
	tx             domain.Transactor
	contextTimeout time.Duration
}

// NewSlotService returns the slot catalog service. The transactor is used to
// serialize capacity-sensitive updates against concurrent bookings.
func NewSlotService(slotRepo domain.SlotRepository, tx domain.Transactor, timeout time.Duration) domain.SlotService {
	return &slotService{
		slotRepo:       slotRepo,
		tx:             tx,
		contextTimeout: timeout,
	}
}

func (s *slotService) CreateSlot(ctx context.Context, slot *domain.Slot) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if slot.TeacherID == "" {
		return fmt.Errorf("%w: teacher id is required", domain.ErrValidation)
	}
	if err := validateSlot(slot); err != nil {
		return err
	}

	now := time.Now()
	slot.CurrentBookings = 0
	slot.IsActive = true
	slot.CreatedAt = now
	slot.UpdatedAt = now

	if err := s.slotRepo.Create(ctx, slot); err != nil {
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

func (s *slotService) UpdateSlot(ctx context.Context, slotID, teacherID string, upd domain.SlotUpdate) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var updated *domain.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Lock the row so a max_students decrease cannot race a concurrent
		// booking claiming the seats being removed.
		slot, err := s.slotRepo.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get slot: %w", err)
		}
		if slot.TeacherID != teacherID {
			return domain.ErrForbidden
		}

		applyUpdate(slot, upd)

		if slot.MaxStudents < slot.CurrentBookings {
			return fmt.Errorf("%w: %d students already booked", domain.ErrCapacityExceeded, slot.CurrentBookings)
		}
		if err := validateSlot(slot); err != nil {
			return err
		}

		slot.UpdatedAt = time.Now()
		if err := s.slotRepo.Update(ctx, slot); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *slotService) SetActive(ctx context.Context, slotID, teacherID string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get slot: %w", err)
	}
	if slot.TeacherID != teacherID {
		return domain.ErrForbidden
	}
	if err := s.slotRepo.SetActive(ctx, slotID, active); err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

// DeleteSlot rejects deletion while confirmed bookings exist, so seated
// students are never silently dropped. Teachers deactivate instead.
func (s *slotService) DeleteSlot(ctx context.Context, slotID, teacherID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		slot, err := s.slotRepo.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get slot: %w", err)
		}
		if slot.TeacherID != teacherID {
			return domain.ErrForbidden
		}
		if slot.CurrentBookings > 0 {
			return fmt.Errorf("%w: %d confirmed bookings", domain.ErrSlotHasBookings, slot.CurrentBookings)
		}
		if err := s.slotRepo.Delete(ctx, slotID); err != nil {
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
}

func (s *slotService) ListAvailable(ctx context.Context, level int) ([]*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if level < 1 {
		return nil, fmt.Errorf("%w: level must be at least 1", domain.ErrValidation)
	}
	slots, err := s.slotRepo.ListAvailable(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, nil
}

func (s *slotService) ListByTeacher(ctx context.Context, teacherID string, p domain.PaginationParams) ([]*domain.Slot, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slots, total, err := s.slotRepo.ListByTeacher(ctx, teacherID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots by teacher: %w", err)
	}
	if slots == nil {
		slots = []*domain.Slot{}
	}
	return slots, total, nil
}

func (s *slotService) GetSlot(ctx context.Context, slotID string) (*domain.Slot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

func applyUpdate(slot *domain.Slot, upd domain.SlotUpdate) {
	if upd.Level != nil {
		slot.Level = *upd.Level
	}
	if upd.Date != nil {
		slot.Date = *upd.Date
	}
	if upd.StartTime != nil {
		slot.StartTime = *upd.StartTime
	}
	if upd.EndTime != nil {
		slot.EndTime = *upd.EndTime
	}
	if upd.Topic != nil {
		slot.Topic = *upd.Topic
	}
	if upd.Description != nil {
		slot.Description = upd.Description
	}
	if upd.Location != nil {
		slot.Location = *upd.Location
	}
	if upd.MaxStudents != nil {
		slot.MaxStudents = *upd.MaxStudents
	}
}

// validateSlot enforces the creation invariants; updates re-validate the
// merged slot through the same rules.
func validateSlot(slot *domain.Slot) error {
	if slot.Topic == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrValidation)
	}
	if slot.Level < 1 {
		return fmt.Errorf("%w: level must be at least 1", domain.ErrValidation)
	}
	if slot.MaxStudents < 1 {
		return fmt.Errorf("%w: max_students must be at least 1", domain.ErrValidation)
	}
	if !slot.EndTime.After(slot.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", domain.ErrValidation)
	}
	if !sameDate(slot.StartTime, slot.Date) || !sameDate(slot.EndTime, slot.Date) {
		return fmt.Errorf("%w: start_time and end_time must fall on the slot date", domain.ErrValidation)
	}
	return nil
}

func sameDate(t, date time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := date.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
