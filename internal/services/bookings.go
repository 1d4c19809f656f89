package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"labbooking/internal/domain"
)

type bookingService struct {
	bookingRepo    domain.BookingRepository
	slotRepo       domain.SlotRepository
	tx             domain.Transactor
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

// NewBookingService returns the reservation service. emailService may be nil
// to disable booking emails entirely.
func NewBookingService(
	bookingRepo domain.BookingRepository,
	slotRepo domain.SlotRepository,
	tx domain.Transactor,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.BookingService {
	return &bookingService{
		bookingRepo:    bookingRepo,
		slotRepo:       slotRepo,
		tx:             tx,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

// CreateBooking reserves one seat. The whole sequence runs in one transaction
// with the slot row locked, so the counter and the booking record cannot
// diverge under concurrent callers: of N simultaneous attempts on a slot with
// k free seats, exactly k succeed.
func (s *bookingService) CreateBooking(ctx context.Context, slotID, studentID, studentEmail string, notes *string) (*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if studentID == "" {
		return nil, fmt.Errorf("%w: student id is required", domain.ErrValidation)
	}

	var booking *domain.Booking
	var slot *domain.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		slot, err = s.slotRepo.GetByIDForUpdate(ctx, slotID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get slot: %w", err)
		}
		if !slot.IsActive {
			return domain.ErrSlotInactive
		}

		if _, err := s.bookingRepo.GetActiveBySlotAndStudent(ctx, slotID, studentID); err == nil {
			return domain.ErrDuplicateBooking
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get active booking: %w", err)
		}

		if err := s.slotRepo.IncrementBooked(ctx, slotID); err != nil {
			if errors.Is(err, domain.ErrSlotFull) {
				return domain.ErrSlotFull
			}
			return fmt.Errorf("increment booked: %w", err)
		}

		now := time.Now()
		booking = domain.NewBooking(slotID, studentID, notes, now, now)
		if err := s.bookingRepo.Create(ctx, booking); err != nil {
			return fmt.Errorf("create booking: %w", err)
		}
		slot.CurrentBookings++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendBookingEmail(ctx, studentEmail, slot, true)
	return booking, nil
}

// CancelBooking is a status change, never a delete; cancelling twice is the
// no-op ErrAlreadyCancelled. Status flip and counter decrement commit together.
func (s *bookingService) CancelBooking(ctx context.Context, bookingID, studentID, studentEmail string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var slot *domain.Slot
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByID(ctx, bookingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("get booking: %w", err)
		}
		if booking.StudentID != studentID {
			return domain.ErrForbidden
		}
		if booking.Status == domain.BookingStatusCancelled {
			return domain.ErrAlreadyCancelled
		}

		// Take the slot lock before flipping status so cancellations and new
		// bookings against the same slot serialize.
		slot, err = s.slotRepo.GetByIDForUpdate(ctx, booking.SlotID)
		if err != nil {
			return fmt.Errorf("get slot: %w", err)
		}

		if err := s.bookingRepo.MarkCancelled(ctx, bookingID); err != nil {
			if errors.Is(err, domain.ErrAlreadyCancelled) {
				return domain.ErrAlreadyCancelled
			}
			return fmt.Errorf("mark cancelled: %w", err)
		}
		if err := s.slotRepo.DecrementBooked(ctx, booking.SlotID); err != nil {
			return fmt.Errorf("decrement booked: %w", err)
		}
		slot.CurrentBookings--
		return nil
	})
	if err != nil {
		return err
	}

	s.sendBookingEmail(ctx, studentEmail, slot, false)
	return nil
}

func (s *bookingService) ListForStudent(ctx context.Context, studentID string, p domain.PaginationParams) ([]*domain.BookingWithSlot, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	bookings, total, err := s.bookingRepo.ListByStudent(ctx, studentID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	slotsByID := make(map[string]*domain.Slot)
	result := make([]*domain.BookingWithSlot, 0, len(bookings))
	for _, b := range bookings {
		slot, ok := slotsByID[b.SlotID]
		if !ok {
			slot, err = s.slotRepo.GetByID(ctx, b.SlotID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					// Slot removed from under the booking; keep the booking visible.
					result = append(result, &domain.BookingWithSlot{Booking: b})
					continue
				}
				return nil, 0, fmt.Errorf("get slot for booking: %w", err)
			}
			slotsByID[b.SlotID] = slot
		}
		result = append(result, &domain.BookingWithSlot{Booking: b, Slot: slot})
	}
	return result, total, nil
}

func (s *bookingService) ListForSlot(ctx context.Context, slotID, teacherID string) ([]*domain.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slot, err := s.slotRepo.GetByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot.TeacherID != teacherID {
		return nil, domain.ErrForbidden
	}

	bookings, err := s.bookingRepo.ListConfirmedBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("list bookings for slot: %w", err)
	}
	if bookings == nil {
		bookings = []*domain.Booking{}
	}
	return bookings, nil
}

// sendBookingEmail notifies the student about their own booking. Failures are
// logged, never returned; the booking already committed.
func (s *bookingService) sendBookingEmail(ctx context.Context, studentEmail string, slot *domain.Slot, confirmed bool) {
	if s.emailService == nil || studentEmail == "" || slot == nil {
		return
	}
	data := &domain.BookingEmailData{
		Email:       studentEmail,
		Topic:       slot.Topic,
		Date:        slot.Date.Format("Monday, 02 Jan 2006"),
		StartTime:   slot.StartTime.Format("15:04"),
		EndTime:     slot.EndTime.Format("15:04"),
		Location:    slot.Location,
		TeacherName: slot.TeacherName,
	}
	var err error
	if confirmed {
		err = s.emailService.SendBookingConfirmed(ctx, data)
	} else {
		err = s.emailService.SendBookingCancelled(ctx, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "booking email failed", "to", studentEmail, "slot_id", slot.ID, "err", err)
	}
}
