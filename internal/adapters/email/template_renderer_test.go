package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labbooking/internal/domain"
)

func TestTemplateRenderer_Render(t *testing.T) {
	renderer := NewTemplateRenderer()
	data := &domain.BookingEmailData{
		Email:       "a@school.edu",
		Topic:       "Titration basics",
		Date:        "Monday, 14 Sep 2026",
		StartTime:   "10:00",
		EndTime:     "12:00",
		Location:    "Lab B",
		TeacherName: "Dr. Chen",
	}

	t.Run("booking_confirmed", func(t *testing.T) {
		subject, html, text, err := renderer.Render("booking_confirmed", data)
		require.NoError(t, err)
		assert.Equal(t, "Seat confirmed: Titration basics on Monday, 14 Sep 2026", subject)
		assert.Contains(t, html, "Titration basics")
		assert.Contains(t, html, "Dr. Chen")
		assert.Contains(t, html, "Lab B")
		assert.Contains(t, text, "Time: 10:00 - 12:00")
	})

	t.Run("booking_cancelled", func(t *testing.T) {
		subject, html, text, err := renderer.Render("booking_cancelled", data)
		require.NoError(t, err)
		assert.Contains(t, subject, "Booking cancelled")
		assert.Contains(t, html, "released")
		assert.Contains(t, text, "Titration basics")
	})

	t.Run("unknown template", func(t *testing.T) {
		_, _, _, err := renderer.Render("no_such_template", data)
		require.Error(t, err)
	})

	t.Run("html is escaped", func(t *testing.T) {
		spicy := *data
		spicy.Topic = `<script>alert("x")</script>`
		_, html, _, err := renderer.Render("booking_confirmed", &spicy)
		require.NoError(t, err)
		assert.NotContains(t, html, "<script>")
	})
}
