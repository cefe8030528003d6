package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp mirrors t.Chdir(t.TempDir()) from Go 1.24+, which is
// unavailable on the Go 1.21 toolchain used to build this module.
func chdirTemp(t *testing.T) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(orig))
	})
}

func confirmedEvent() PaymentEvent {
	return PaymentEvent{
		EventID:          "ev-1",
		Type:             EventPaymentConfirmed,
		ReservationID:    1,
		GuestName:        "Ada Lovelace",
		Email:            "ada@example.com",
		Date:             "2026-09-12",
		Time:             "19:30",
		PartySize:        2,
		ConfirmationCode: "R7KQ2M",
		AmountCents:      5000,
		OccurredAt:       "2026-08-30T12:00:00Z",
	}
}

func TestHandleMessageAppendsAuditLine(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SMTP_HOST", "") // email skipped without a relay

	body, err := json.Marshal(confirmedEvent())
	require.NoError(t, err)
	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(filepath.Join("logs", "payments.log"))
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, EventPaymentConfirmed)
	assert.Contains(t, line, "reservation_id=1")
	assert.Contains(t, line, `guest="Ada Lovelace"`)
	assert.Contains(t, line, "code=R7KQ2M")
	assert.Contains(t, line, "amount=5000 cents")
}

func TestHandleMessageRefundIncludesReason(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SMTP_HOST", "")

	ev := confirmedEvent()
	ev.Type = EventPaymentRefunded
	ev.Reason = "Guest cancelled"
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(filepath.Join("logs", "payments.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `reason="Guest cancelled"`)
}

func TestHandleMessageAppendsAcrossEvents(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SMTP_HOST", "")

	body, err := json.Marshal(confirmedEvent())
	require.NoError(t, err)
	require.NoError(t, handleMessage(body))
	require.NoError(t, handleMessage(body))

	data, err := os.ReadFile(filepath.Join("logs", "payments.log"))
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(b []byte) int {
	n := 0
	for _, c := range b {
		if c == '\n' {
			n++
		}
	}
	return n
}

func TestHandleMessageRejectsMalformedBody(t *testing.T) {
	chdirTemp(t)
	assert.Error(t, handleMessage([]byte("{not json")))
}

func TestSendGuestEmailSkippedWithoutHost(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	assert.NoError(t, sendGuestEmail(confirmedEvent()))
}

func TestSendGuestEmailUnknownType(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	ev := confirmedEvent()
	ev.Type = "payment.unknown"
	assert.Error(t, sendGuestEmail(ev))
}
