package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"labbooking/internal/delivery/http/controllers"
	"labbooking/internal/delivery/http/middleware"
	"labbooking/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// Teacher routes manage the slot catalog; student routes book seats.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	slotController *controllers.SlotController,
	bookingController *controllers.BookingController,
	healthController *controllers.HealthController,
) *http.ServeMux {
	mux := http.NewServeMux()

	auth := middleware.RequireAuth(verifier, logger)
	teacher := middleware.RequireRole(domain.RoleTeacher)
	student := middleware.RequireRole(domain.RoleStudent)

	// Slot catalog
	mux.HandleFunc("POST /slots", auth(teacher(slotController.CreateSlot)))
	mux.HandleFunc("GET /slots/available", auth(student(slotController.ListAvailable)))
	mux.HandleFunc("GET /slots/mine", auth(teacher(slotController.ListMine)))
	mux.HandleFunc("GET /slots/{slotID}", auth(slotController.GetSlot))
	mux.HandleFunc("PATCH /slots/{slotID}", auth(teacher(slotController.UpdateSlot)))
	mux.HandleFunc("PUT /slots/{slotID}/active", auth(teacher(slotController.SetActive)))
	mux.HandleFunc("DELETE /slots/{slotID}", auth(teacher(slotController.DeleteSlot)))
	mux.HandleFunc("GET /slots/{slotID}/bookings", auth(teacher(bookingController.ListRoster)))

	// Bookings
	mux.HandleFunc("POST /bookings", auth(student(bookingController.CreateBooking)))
	mux.HandleFunc("DELETE /bookings/{bookingID}", auth(student(bookingController.CancelBooking)))
	mux.HandleFunc("GET /bookings/mine", auth(student(bookingController.ListMine)))

	// Operational
	mux.HandleFunc("GET /healthz", healthController.Check)
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
