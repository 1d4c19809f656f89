package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"labbooking/internal/delivery/http/helpers"
	"labbooking/internal/delivery/http/middleware"
	"labbooking/internal/domain"
)

// SlotController exposes the teacher-facing slot catalog plus the student
// availability query.
type SlotController struct {
	Logger  *slog.Logger
	Service domain.SlotService
}

func NewSlotController(logger *slog.Logger, svc domain.SlotService) *SlotController {
	return &SlotController{
		Logger:  logger,
		Service: svc,
	}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// combineDateTime merges a wall-clock HH:MM onto the given calendar date.
func combineDateTime(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse(timeLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}

// CreateSlotRequest is the request body for POST /slots.
type CreateSlotRequest struct {
	Level       int     `json:"level"`
	Date        string  `json:"date"`       // YYYY-MM-DD
	StartTime   string  `json:"start_time"` // HH:MM
	EndTime     string  `json:"end_time"`   // HH:MM
	Topic       string  `json:"topic"`
	Description *string `json:"description"`
	Location    string  `json:"location"`
	MaxStudents int     `json:"max_students"`

	date  time.Time
	start time.Time
	end   time.Time
}

// Validate implements helpers.Validator.
func (r *CreateSlotRequest) Validate() []string {
	var errs []string
	if r.Level < 1 {
		errs = append(errs, "level must be at least 1")
	}
	r.Topic = strings.TrimSpace(r.Topic)
	if r.Topic == "" {
		errs = append(errs, "topic is required")
	}
	if r.MaxStudents < 1 {
		errs = append(errs, "max_students must be at least 1")
	}
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		errs = append(errs, "date must be formatted as YYYY-MM-DD")
		return errs
	}
	r.date = date
	if r.start, err = combineDateTime(date, r.StartTime); err != nil {
		errs = append(errs, "start_time must be formatted as HH:MM")
	}
	if r.end, err = combineDateTime(date, r.EndTime); err != nil {
		errs = append(errs, "end_time must be formatted as HH:MM")
	}
	if len(errs) == 0 && !r.end.After(r.start) {
		errs = append(errs, "end_time must be after start_time")
	}
	return errs
}

// SlotSuccessResponse is the success envelope for single-slot endpoints.
type SlotSuccessResponse struct {
	Data  *domain.Slot      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateSlot godoc
// @Summary Publish a lab-session slot
// @Description Creates a slot owned by the authenticated teacher. The slot starts active with zero bookings.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body controllers.CreateSlotRequest true "Slot fields"
// @Success 201 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots [post]
func (c *SlotController) CreateSlot(w http.ResponseWriter, r *http.Request) {
	var req CreateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slot := domain.NewSlot(identity.UserID, identity.Name, req.Level, req.date, req.start, req.end,
		req.Topic, req.Description, req.Location, req.MaxStudents, time.Time{}, time.Time{})
	if err := c.Service.CreateSlot(r.Context(), slot); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, slot)
}

// ListAvailableSuccessResponse is the success envelope for GET /slots/available.
type ListAvailableSuccessResponse struct {
	Data  []*domain.Slot    `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// ListAvailable godoc
// @Summary List bookable slots for a level
// @Description Returns active slots with seats remaining for the given level, ordered by date and start time. Defaults to the caller's own level.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param level query int false "Grade level (defaults to the student's level)"
// @Success 200 {object} controllers.ListAvailableSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/available [get]
func (c *SlotController) ListAvailable(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	level := identity.Level
	if s := r.URL.Query().Get("level"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "level must be an integer")
			return
		}
		level = v
	}

	slots, err := c.Service.ListAvailable(r.Context(), level)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slots)
}

// ListMineData is the payload for GET /slots/mine.
type ListMineData struct {
	Slots      []*domain.Slot         `json:"slots"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListMine godoc
// @Summary List the authenticated teacher's slots
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains slots and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/mine [get]
func (c *SlotController) ListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	p := helpers.ParsePagination(r)

	slots, total, err := c.Service.ListByTeacher(r.Context(), identity.UserID, p)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListMineData{
		Slots:      slots,
		Pagination: helpers.NewPaginationMeta(p.Page, p.PageSize, total),
	})
}

// GetSlot godoc
// @Summary Get a slot by id
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID} [get]
func (c *SlotController) GetSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	slot, err := c.Service.GetSlot(r.Context(), slotID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// UpdateSlotRequest is the request body for PATCH /slots/{slotID}. Omitted
// fields keep their current values. date, start_time, and end_time must be
// sent together so the wall-clock times always land on the slot date.
type UpdateSlotRequest struct {
	Level       *int    `json:"level"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	Topic       *string `json:"topic"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	MaxStudents *int    `json:"max_students"`

	upd domain.SlotUpdate
}

// Validate implements helpers.Validator.
func (r *UpdateSlotRequest) Validate() []string {
	var errs []string
	r.upd = domain.SlotUpdate{
		Level:       r.Level,
		Topic:       r.Topic,
		Description: r.Description,
		Location:    r.Location,
		MaxStudents: r.MaxStudents,
	}
	if r.Topic != nil && strings.TrimSpace(*r.Topic) == "" {
		errs = append(errs, "topic must not be empty")
	}
	if r.Level != nil && *r.Level < 1 {
		errs = append(errs, "level must be at least 1")
	}
	if r.MaxStudents != nil && *r.MaxStudents < 1 {
		errs = append(errs, "max_students must be at least 1")
	}

	hasDate := r.Date != nil
	hasTimes := r.StartTime != nil || r.EndTime != nil
	if !hasDate && !hasTimes {
		return errs
	}
	if r.Date == nil || r.StartTime == nil || r.EndTime == nil {
		errs = append(errs, "date, start_time, and end_time must be provided together")
		return errs
	}
	date, err := time.Parse(dateLayout, *r.Date)
	if err != nil {
		errs = append(errs, "date must be formatted as YYYY-MM-DD")
		return errs
	}
	start, err := combineDateTime(date, *r.StartTime)
	if err != nil {
		errs = append(errs, "start_time must be formatted as HH:MM")
	}
	end, err := combineDateTime(date, *r.EndTime)
	if err != nil {
		errs = append(errs, "end_time must be formatted as HH:MM")
	}
	if len(errs) > 0 {
		return errs
	}
	if !end.After(start) {
		return append(errs, "end_time must be after start_time")
	}
	r.upd.Date = &date
	r.upd.StartTime = &start
	r.upd.EndTime = &end
	return errs
}

// UpdateSlot godoc
// @Summary Update a slot
// @Description Partially updates a slot owned by the authenticated teacher. Lowering max_students below the number of confirmed bookings is rejected.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body controllers.UpdateSlotRequest true "Fields to change"
// @Success 200 {object} controllers.SlotSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: capacity_exceeded"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID} [patch]
func (c *SlotController) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	var req UpdateSlotRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	slot, err := c.Service.UpdateSlot(r.Context(), slotID, identity.UserID, req.upd)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrCapacityExceeded):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeCapacityExceeded, err.Error())
		case errors.Is(err, domain.ErrValidation):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, slot)
}

// SetActiveRequest is the request body for PUT /slots/{slotID}/active.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

// Validate implements helpers.Validator.
func (r *SetActiveRequest) Validate() []string {
	if r.Active == nil {
		return []string{"active is required"}
	}
	return nil
}

// SetActive godoc
// @Summary Toggle slot visibility to students
// @Description Activates or deactivates a slot. Existing bookings are unaffected.
// @Tags slots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Param body body controllers.SetActiveRequest true "Desired state"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID}/active [put]
func (c *SlotController) SetActive(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.SetActive(r.Context(), slotID, identity.UserID, *req.Active); err != nil {
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
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"active": *req.Active})
}

// DeleteSlot godoc
// @Summary Delete a slot
// @Description Deletes a slot owned by the authenticated teacher. Rejected while confirmed bookings exist; deactivate the slot instead.
// @Tags slots
// @Produce json
// @Security BearerAuth
// @Param slotID path string true "Slot ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: slot_has_bookings"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /slots/{slotID} [delete]
func (c *SlotController) DeleteSlot(w http.ResponseWriter, r *http.Request) {
	slotID, ok := pathUUID(w, r, "slotID")
	if !ok {
		return
	}
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	if err := c.Service.DeleteSlot(r.Context(), slotID, identity.UserID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "slot not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
		case errors.Is(err, domain.ErrSlotHasBookings):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeSlotHasBookings, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]bool{"deleted": true})
}

// pathUUID reads a path value and validates it is a canonical UUID.
// On failure it writes a 400 and returns false.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := r.PathValue(name)
	if v == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing "+name)
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid "+name)
		return "", false
	}
	return v, true
}
