package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"labbooking/internal/delivery/http/helpers"
	"labbooking/internal/delivery/http/middleware"
	"labbooking/internal/domain"
)

// BookingController exposes the student-facing reservation endpoints and the
// teacher roster view.
type BookingController struct {
	Logger  *slog.Logger
	Service domain.BookingService
}

func NewBookingController(logger *slog.Logger, svc domain.BookingService) *BookingController {
	return &BookingController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateBookingRequest is the request body for POST /bookings.
type CreateBookingRequest struct {
	SlotID string  `json:"slot_id"`
	Notes  *string `json:"notes"`
}

// Validate implements helpers.Validator.
func (r *CreateBookingRequest) Validate() []string {
	if r.SlotID == "" {
		return []string{"slot_id is required"}
	}
	if _, err := uuid.Parse(r.SlotID); err != nil {
		return []string{"slot_id must be a UUID"}
	}
	return nil
}

// BookingSuccessResponse is the success envelope for single-booking endpoints.
type BookingSuccessResponse struct {
	Data  *domain.Booking   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateBooking godoc
// @Summary Reserve a seat in a slot
// @Description Books one seat for the authenticated student. Fails when the slot is inactive, full, or already booked by the student.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateBookingRequest true "Slot to book"
// @Success 201 {object} controllers.BookingSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_full, duplicate_booking, or slot_inactive"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings [post]
func (c *BookingController) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	booking, err := c.Service.CreateBooking(r.Context(), req.SlotID, identity.UserID, identity.Email, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrSlotInactive):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotInactive, err.Error())
		case errors.Is(err, domain.ErrDuplicateBooking):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeDuplicateBooking, err.Error())
		case errors.Is(err, domain.ErrSlotFull):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotFull, err.Error())
		case errors.Is(err, domain.ErrValidation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, booking)
}

// CancelBookingData is the payload for DELETE /bookings/{bookingID}.
// Cancelled reports whether this call performed the cancellation; false means
// the booking was already cancelled (idempotent no-op).
type CancelBookingData struct {
	Cancelled bool `json:"cancelled"`
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels the authenticated student's booking and releases the seat. Cancelling an already-cancelled booking is a no-op that returns cancelled=false.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param bookingID path string true "Booking ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data.cancelled reports whether this call cancelled the booking"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/{bookingID} [delete]
func (c *BookingController) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathUUID(w, r, "bookingID")
	if !ok {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	err := c.Service.CancelBooking(r.Context(), bookingID, identity.UserID, identity.Email)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyCancelled):
			helpers.WriteJSONSuccess(w, http.StatusOK, CancelBookingData{Cancelled: false})
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "booking not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CancelBookingData{Cancelled: true})
}

// BookingListMineData is the payload for GET /bookings/mine.
type BookingListMineData struct {
	Bookings   []*domain.BookingWithSlot `json:"bookings"`
	Pagination helpers.PaginationMeta    `json:"pagination"`
}

// ListMine godoc
// @Summary List the authenticated student's bookings
// @Description Returns the student's booking history in all statuses, newest first, each with its slot.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains bookings and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /bookings/mine [get]
func (c *BookingController) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p := helpers.ParsePagination(r)

	bookings, total, err := c.Service.ListForStudent(r.Context(), identity.UserID, p)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, BookingListMineData{
		Bookings:   bookings,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// RosterSuccessResponse is the success envelope for GET /slots/{slotID}/bookings.
type RosterSuccessResponse struct {
	Data  []*domain.Booking `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListRoster godoc
// @Summary List confirmed bookings for a slot
// @Description Returns the roster for a slot owned by the authenticated teacher: confirmed bookings only, first-booked-first-listed.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} controllers.RosterSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID}/bookings [get]
func (c *BookingController) ListRoster(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	bookings, err := c.Service.ListForSlot(r.Context(), slotID, identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, bookings)
}
