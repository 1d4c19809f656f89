package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"labbooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var bookingCols = []string{"id", "slot_id", "student_id", "notes", "status", "created_at", "updated_at"}

func sampleBookingRow(id, status string) []driver.Value {
	created := time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC)
	return []driver.Value{id, "slot-1", "student-1", nil, status, created, created}
}

func TestBookingRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 9, 2, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO bookings \(slot_id, student_id, notes, status, created_at, updated_at\)`).
					WithArgs("slot-1", "student-1", sql.NullString{}, "confirmed", now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("booking-uuid-1"))
			},
			wantID: "booking-uuid-1",
		},
		{
			name: "active booking already exists",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO bookings`).
					WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_bookings_active_per_student"})
			},
			wantErr: domain.ErrDuplicateBooking,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO bookings`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewBookingRepository(db)
			booking := domain.NewBooking("slot-1", "student-1", nil, now, now)
			err = repo.Create(ctx, booking)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, booking.ID)
			require.Equal(t, domain.BookingStatusConfirmed, booking.Status)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, slot_id, student_id, notes, status, created_at, updated_at FROM bookings WHERE id = \$1`).
			WithArgs("booking-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(sampleBookingRow("booking-1", "confirmed")...))

		repo := NewBookingRepository(db)
		booking, err := repo.GetByID(ctx, "booking-1")
		require.NoError(t, err)
		require.Equal(t, "booking-1", booking.ID)
		require.Equal(t, domain.BookingStatusConfirmed, booking.Status)
		require.Nil(t, booking.Notes)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		repo := NewBookingRepository(db)
		_, err = repo.GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingRepository_GetActiveBySlotAndStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE slot_id = \$1 AND student_id = \$2 AND status = 'confirmed'`).
			WithArgs("slot-1", "student-1").
			WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(sampleBookingRow("booking-1", "confirmed")...))

		repo := NewBookingRepository(db)
		booking, err := repo.GetActiveBySlotAndStudent(ctx, "slot-1", "student-1")
		require.NoError(t, err)
		require.Equal(t, "booking-1", booking.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no active booking", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE slot_id = \$1 AND student_id = \$2 AND status = 'confirmed'`).
			WithArgs("slot-1", "student-2").
			WillReturnError(sql.ErrNoRows)

		repo := NewBookingRepository(db)
		_, err = repo.GetActiveBySlotAndStudent(ctx, "slot-1", "student-2")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBookingRepository_MarkCancelled(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SET status = 'cancelled', updated_at = NOW\(\)`).
					WithArgs("booking-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "already cancelled",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SET status = 'cancelled', updated_at = NOW\(\)`).
					WithArgs("booking-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
					WithArgs("booking-1").
					WillReturnRows(sqlmock.NewRows(bookingCols).AddRow(sampleBookingRow("booking-1", "cancelled")...))
			},
			wantErr: domain.ErrAlreadyCancelled,
		},
		{
			name: "booking missing",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`SET status = 'cancelled', updated_at = NOW\(\)`).
					WithArgs("booking-1").
					WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT .* FROM bookings WHERE id = \$1`).
					WithArgs("booking-1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewBookingRepository(db)
			err = repo.MarkCancelled(ctx, "booking-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_ListByStudent(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings WHERE student_id = \$1`).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY created_at DESC`).
		WithArgs("student-1", 20, 0).
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(sampleBookingRow("booking-3", "confirmed")...).
			AddRow(sampleBookingRow("booking-2", "cancelled")...).
			AddRow(sampleBookingRow("booking-1", "confirmed")...))

	repo := NewBookingRepository(db)
	bookings, total, err := repo.ListByStudent(ctx, "student-1", domain.PaginationParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, bookings, 3)
	require.Equal(t, domain.BookingStatusCancelled, bookings[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListConfirmedBySlot(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`WHERE slot_id = \$1 AND status = 'confirmed'`).
		WithArgs("slot-1").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(sampleBookingRow("booking-1", "confirmed")...).
			AddRow(sampleBookingRow("booking-2", "confirmed")...))

	repo := NewBookingRepository(db)
	bookings, err := repo.ListConfirmedBySlot(ctx, "slot-1")
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.Equal(t, "booking-1", bookings[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
