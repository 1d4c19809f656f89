package domain

import "context"

// Mailer sends a single email message.
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders a named template into subject, html, and text bodies.
type EmailTemplateRenderer interface {
	Render(templateName string, data interface{}) (subject, htmlBody, textBody string, err error)
}

// BookingEmailData is the template data for booking confirmation and
// cancellation emails.
type BookingEmailData struct {
	Email       string
	Topic       string
	Date        string
	StartTime   string
	EndTime     string
	Location    string
	TeacherName string
}

// EmailService sends booking lifecycle emails. Sends are best-effort; a
// failed email never fails the booking operation.
type EmailService interface {
	SendBookingConfirmed(ctx context.Context, data *BookingEmailData) error
	SendBookingCancelled(ctx context.Context, data *BookingEmailData) error
}
