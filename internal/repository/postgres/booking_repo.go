package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"labbooking/internal/domain"
)

const bookingColumns = `id, slot_id, student_id, notes, status, created_at, updated_at`

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (slot_id, student_id) WHERE status = 'confirmed'.
const uniqueViolation = "23505"

type bookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(db *sql.DB) domain.BookingRepository {
	return &bookingRepository{
		DB: db,
	}
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
		INSERT INTO bookings (slot_id, student_id, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := runner(ctx, r.DB).QueryRowContext(ctx, query,
		b.SlotID, b.StudentID, nullString(b.Notes), string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateBooking
		}
		return err
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	row := runner(ctx, r.DB).QueryRowContext(ctx, query, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) GetActiveBySlotAndStudent(ctx context.Context, slotID, studentID string) (*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE slot_id = $1 AND student_id = $2 AND status = 'confirmed'
	`
	row := runner(ctx, r.DB).QueryRowContext(ctx, query, slotID, studentID)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// MarkCancelled flips a confirmed booking to cancelled. The status guard in
// the WHERE clause makes a concurrent double-cancel lose cleanly.
func (r *bookingRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status = 'confirmed'
	`
	result, err := runner(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrAlreadyCancelled
	}
	return nil
}

func (r *bookingRepository) ListByStudent(ctx context.Context, studentID string, p domain.PaginationParams) ([]*domain.Booking, int, error) {
	q := runner(ctx, r.DB)

	var total int
	countQuery := `SELECT COUNT(*) FROM bookings WHERE student_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE student_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := q.QueryContext(ctx, query, studentID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListConfirmedBySlot(ctx context.Context, slotID string) ([]*domain.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE slot_id = $1 AND status = 'confirmed'
		ORDER BY created_at
	`
	rows, err := runner(ctx, r.DB).QueryContext(ctx, query, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	b := &domain.Booking{}
	var notesNull sql.NullString
	var status string
	err := row.Scan(&b.ID, &b.SlotID, &b.StudentID, &notesNull, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if notesNull.Valid {
		b.Notes = &notesNull.String
	}
	b.Status = domain.BookingStatus(status)
	return b, nil
}

func collectBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
