package templates

import (
	"testing"
	"time"

	"adspace/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inquiry() *domain.Inquiry {
	return &domain.Inquiry{
		ID:                "7b0f",
		AdvertisingState:  "Karnataka",
		AdvertisingMarket: "Bengaluru",
		Topic:             "Sales",
		Media:             "Billboards",
		FirstName:         "Meera",
		LastName:          "Iyer",
		Phone:             "9876543210",
		Email:             "meera@example.com",
		City:              "Mysuru",
		Message:           "<script>alert(1)</script> need 3 sites",
		Status:            domain.StatusRead,
		CreatedAt:         time.Date(2026, 2, 10, 15, 4, 0, 0, time.UTC),
		Notes: []domain.Note{
			{Content: "Called back", CreatedAt: time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)},
		},
	}
}

func TestAdminEmail(t *testing.T) {
	svc, err := New("Adspace")
	require.NoError(t, err)

	subject, html, text, err := svc.Email(InquiryAdmin, inquiry())
	require.NoError(t, err)

	assert.Equal(t, "New Sales inquiry from Meera Iyer", subject)
	assert.Contains(t, html, "New Inquiry from Meera Iyer")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "automated message from Adspace")
	assert.Contains(t, text, "Advertising Market: Bengaluru")
	assert.Contains(t, text, "February 10, 2026 at 3:04 PM")
}

func TestForwardEmailIncludesNotes(t *testing.T) {
	svc, err := New("Adspace")
	require.NoError(t, err)

	subject, html, text, err := svc.Email(InquiryForward, inquiry())
	require.NoError(t, err)

	assert.Equal(t, "Fwd: Sales inquiry from Meera Iyer", subject)
	assert.Contains(t, html, "Called back")
	assert.Contains(t, text, "- [February 11, 2026 at 9:00 AM] Called back")
	assert.Contains(t, text, "Status: read")
}

func TestWhatsApp(t *testing.T) {
	svc, err := New("Adspace")
	require.NoError(t, err)

	ack, err := svc.WhatsApp(InquiryAck, inquiry())
	require.NoError(t, err)
	assert.Contains(t, ack, "Hi Meera, thank you for contacting Adspace.")

	admin, err := svc.WhatsApp(InquiryAdmin, inquiry())
	require.NoError(t, err)
	assert.Contains(t, admin, "*New inquiry* (Sales)")
	assert.Contains(t, admin, "Market: Bengaluru, Karnataka")
}
