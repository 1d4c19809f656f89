package services

import (
	"context"
	"fmt"
	"log"

	"labbooking/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer}
}

// SendBookingConfirmed sends the seat confirmation email using the "booking_confirmed" template.
func (s *emailService) SendBookingConfirmed(ctx context.Context, data *domain.BookingEmailData) error {
	return s.send("booking_confirmed", data)
}

// SendBookingCancelled sends the cancellation receipt using the "booking_cancelled" template.
func (s *emailService) SendBookingCancelled(ctx context.Context, data *domain.BookingEmailData) error {
	return s.send("booking_cancelled", data)
}

func (s *emailService) send(templateName string, data *domain.BookingEmailData) error {
	if data == nil {
		return fmt.Errorf("email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(templateName, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", templateName, err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	log.Printf("[EMAIL] %s sent to %s", templateName, data.Email)
	return nil
}
