package postgres

import (
	"context"
	"database/sql"
	"errors"

	"labbooking/internal/domain"
)

const slotColumns = `id, teacher_id, teacher_name, level, date, start_time, end_time, topic, description, location, max_students, current_bookings, is_active, created_at, updated_at`

type slotRepository struct {
	DB *sql.DB
}

func NewSlotRepository(db *sql.DB) domain.SlotRepository {
	return &slotRepository{
		DB: db,
	}
}

func (r *slotRepository) Create(ctx context.Context, s *domain.Slot) error {
	query := `
		INSERT INTO slots (teacher_id, teacher_name, level, date, start_time, end_time, topic, description, location, max_students, current_bookings, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	return runner(ctx, r.DB).QueryRowContext(ctx, query,
		s.TeacherID, s.TeacherName, s.Level, s.Date, s.StartTime, s.EndTime,
		s.Topic, nullString(s.Description), s.Location, s.MaxStudents,
		s.CurrentBookings, s.IsActive, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

func (r *slotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByIDForUpdate locks the slot row until the surrounding transaction ends.
// All booking mutations against a slot funnel through this lock.
func (r *slotRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id)
}

func (r *slotRepository) getOne(ctx context.Context, query, id string) (*domain.Slot, error) {
	row := runner(ctx, r.DB).QueryRowContext(ctx, query, id)
	s, err := scanSlot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *slotRepository) Update(ctx context.Context, s *domain.Slot) error {
	query := `
		UPDATE slots
		SET level = $1, date = $2, start_time = $3, end_time = $4, topic = $5, description = $6, location = $7, max_students = $8, updated_at = $9
		WHERE id = $10
	`
	result, err := runner(ctx, r.DB).ExecContext(ctx, query,
		s.Level, s.Date, s.StartTime, s.EndTime, s.Topic,
		nullString(s.Description), s.Location, s.MaxStudents, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE slots SET is_active = $1, updated_at = NOW() WHERE id = $2`
	result, err := runner(ctx, r.DB).ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM slots WHERE id = $1`
	result, err := runner(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *slotRepository) ListAvailable(ctx context.Context, level int) ([]*domain.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE level = $1 AND is_active AND current_bookings < max_students
		ORDER BY date, start_time
	`
	rows, err := runner(ctx, r.DB).QueryContext(ctx, query, level)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (r *slotRepository) ListByTeacher(ctx context.Context, teacherID string, p domain.PaginationParams) ([]*domain.Slot, int, error) {
	q := runner(ctx, r.DB)

	var total int
	countQuery := `SELECT COUNT(*) FROM slots WHERE teacher_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, teacherID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE teacher_id = $1
		ORDER BY date, start_time
		LIMIT $2 OFFSET $3
	`
	rows, err := q.QueryContext(ctx, query, teacherID, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	slots, err := collectSlots(rows)
	if err != nil {
		return nil, 0, err
	}
	return slots, total, nil
}

// IncrementBooked claims one seat. The WHERE clause makes the capacity check
// and the increment a single atomic statement.
func (r *slotRepository) IncrementBooked(ctx context.Context, id string) error {
	query := `
		UPDATE slots
		SET current_bookings = current_bookings + 1, updated_at = NOW()
		WHERE id = $1 AND current_bookings < max_students
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
		return domain.ErrSlotFull
	}
	return nil
}

// DecrementBooked releases one seat, flooring at zero.
func (r *slotRepository) DecrementBooked(ctx context.Context, id string) error {
	query := `
		UPDATE slots
		SET current_bookings = current_bookings - 1, updated_at = NOW()
		WHERE id = $1 AND current_bookings > 0
	`
	result, err := runner(ctx, r.DB).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Missing slot is an error; an already-zero counter is not.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.Slot, error) {
	s := &domain.Slot{}
	var descNull sql.NullString
	err := row.Scan(
		&s.ID, &s.TeacherID, &s.TeacherName, &s.Level, &s.Date, &s.StartTime,
		&s.EndTime, &s.Topic, &descNull, &s.Location, &s.MaxStudents,
		&s.CurrentBookings, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if descNull.Valid {
		s.Description = &descNull.String
	}
	return s, nil
}

func collectSlots(rows *sql.Rows) ([]*domain.Slot, error) {
	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
