package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"labbooking/internal/delivery/http/helpers"
	"labbooking/internal/delivery/http/middleware"
	"labbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookingService implements domain.BookingService for handler tests.
type fakeBookingService struct {
	createErr     error
	cancelErr     error
	listStudent   []*domain.BookingWithSlot
	listStudentN  int
	listStudentE  error
	listSlot      []*domain.Booking
	listSlotErr   error
	lastSlotID    string
	lastStudentID string
	lastEmail     string
	lastNotes     *string
	lastBookingID string
	lastTeacherID string
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, slotID, studentID, studentEmail string, notes *string) (*domain.Booking, error) {
	f.lastSlotID = slotID
	f.lastStudentID = studentID
	f.lastEmail = studentEmail
	f.lastNotes = notes
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Booking{
		ID:        testBookingID,
		SlotID:    slotID,
		StudentID: studentID,
		Notes:     notes,
		Status:    domain.BookingStatusConfirmed,
	}, nil
}

func (f *fakeBookingService) CancelBooking(ctx context.Context, bookingID, studentID, studentEmail string) error {
	f.lastBookingID = bookingID
	f.lastStudentID = studentID
	return f.cancelErr
}

func (f *fakeBookingService) ListForStudent(ctx context.Context, studentID string, p domain.PaginationParams) ([]*domain.BookingWithSlot, int, error) {
	f.lastStudentID = studentID
	if f.listStudentE != nil {
		return nil, 0, f.listStudentE
	}
	return f.listStudent, f.listStudentN, nil
}

func (f *fakeBookingService) ListForSlot(ctx context.Context, slotID, teacherID string) ([]*domain.Booking, error) {
	f.lastSlotID = slotID
	f.lastTeacherID = teacherID
	if f.listSlotErr != nil {
		return nil, f.listSlotErr
	}
	return f.listSlot, nil
}

func TestBookingController_CreateBooking(t *testing.T) {
	validBody := fmt.Sprintf(`{"slot_id":%q}`, testSlotID)

	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noIdentity     bool
		wantStatus     int
		wantErrCode    string
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       validBody,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "missing slot_id",
			body:           `{}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "slot_id is required",
		},
		{
			name:           "malformed slot_id",
			body:           `{"slot_id":"nope"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "slot_id must be a UUID",
		},
		{
			name:       "no identity",
			body:       validBody,
			noIdentity: true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:        "slot not found",
			body:        validBody,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
		{
			name:        "slot inactive",
			body:        validBody,
			fakeErr:     domain.ErrSlotInactive,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeSlotInactive,
		},
		{
			name:        "duplicate booking",
			body:        validBody,
			fakeErr:     domain.ErrDuplicateBooking,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeDuplicateBooking,
		},
		{
			name:        "slot full",
			body:        validBody,
			fakeErr:     domain.ErrSlotFull,
			wantStatus:  http.StatusConflict,
			wantErrCode: helpers.ErrCodeSlotFull,
		},
		{
			name:        "service error",
			body:        validBody,
			fakeErr:     errors.New("db error"),
			wantStatus:  http.StatusInternalServerError,
			wantErrCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{createErr: tt.fakeErr}
			ctrl := NewBookingController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/bookings", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noIdentity {
				req = req.WithContext(middleware.SetIdentity(req.Context(), studentIdentity()))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateBooking(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, testSlotID, fake.lastSlotID)
				assert.Equal(t, "student-1", fake.lastStudentID)
				assert.Equal(t, "a@school.edu", fake.lastEmail)
				return
			}
			require.NotNil(t, envelope.Error)
			if tt.wantErrCode != "" {
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
			if tt.wantBodySubstr != "" {
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestBookingController_CancelBooking(t *testing.T) {
	tests := []struct {
		name          string
		fakeErr       error
		wantStatus    int
		wantCancelled *bool
	}{
		{
			name:          "success",
			wantStatus:    http.StatusOK,
			wantCancelled: boolPtr(true),
		},
		{
			name:          "already cancelled is a 200 no-op",
			fakeErr:       domain.ErrAlreadyCancelled,
			wantStatus:    http.StatusOK,
			wantCancelled: boolPtr(false),
		},
		{
			name:       "not found",
			fakeErr:    domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "someone else's booking",
			fakeErr:    domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "service error",
			fakeErr:    errors.New("db error"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{cancelErr: tt.fakeErr}
			ctrl := NewBookingController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/bookings/"+testBookingID, nil)
			req.SetPathValue("bookingID", testBookingID)
			req = req.WithContext(middleware.SetIdentity(req.Context(), studentIdentity()))
			rr := httptest.NewRecorder()

			ctrl.CancelBooking(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCancelled != nil {
				var envelope struct {
					Data  CancelBookingData `json:"data"`
					Error *helpers.APIError `json:"error"`
				}
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.Nil(t, envelope.Error)
				assert.Equal(t, *tt.wantCancelled, envelope.Data.Cancelled)
			}
		})
	}

	t.Run("invalid booking id", func(t *testing.T) {
		ctrl := NewBookingController(testLogger, &fakeBookingService{})
		req := httptest.NewRequest(http.MethodDelete, "/bookings/nope", nil)
		req.SetPathValue("bookingID", "nope")
		req = req.WithContext(middleware.SetIdentity(req.Context(), studentIdentity()))
		rr := httptest.NewRecorder()

		ctrl.CancelBooking(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestBookingController_ListMine(t *testing.T) {
	fake := &fakeBookingService{
		listStudent: []*domain.BookingWithSlot{
			{Booking: &domain.Booking{ID: testBookingID, Status: domain.BookingStatusConfirmed}, Slot: &domain.Slot{ID: testSlotID}},
		},
		listStudentN: 1,
	}
	ctrl := NewBookingController(testLogger, fake)
	req := httptest.NewRequest(http.MethodGet, "/bookings/mine", nil)
	req = req.WithContext(middleware.SetIdentity(req.Context(), studentIdentity()))
	rr := httptest.NewRecorder()

	ctrl.ListMine(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "student-1", fake.lastStudentID)
	var envelope struct {
		Data  BookingListMineData `json:"data"`
		Error *helpers.APIError   `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Len(t, envelope.Data.Bookings, 1)
	assert.Equal(t, testSlotID, envelope.Data.Bookings[0].Slot.ID)
	assert.Equal(t, 1, envelope.Data.Pagination.Total)
}

func TestBookingController_ListRoster(t *testing.T) {
	tests := []struct {
		name       string
		fakeErr    error
		wantStatus int
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "not owner", fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "slot not found", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeBookingService{
				listSlot:    []*domain.Booking{{ID: testBookingID, Status: domain.BookingStatusConfirmed}},
				listSlotErr: tt.fakeErr,
			}
			ctrl := NewBookingController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/slots/"+testSlotID+"/bookings", nil)
			req.SetPathValue("slotID", testSlotID)
			req = req.WithContext(middleware.SetIdentity(req.Context(), teacherIdentity()))
			rr := httptest.NewRecorder()

			ctrl.ListRoster(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, testSlotID, fake.lastSlotID)
				assert.Equal(t, "teacher-1", fake.lastTeacherID)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }
