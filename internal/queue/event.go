// Package queue defines message payloads exchanged over the message broker.
package queue

// QueueName is the durable queue payment events are published to and
// consumed from.
const QueueName = "payment.events"

// Event types published to the payment.events queue.
const (
    EventPaymentConfirmed = "payment.confirmed"
    EventPaymentRefunded  = "payment.refunded"
)

// PaymentEvent is published after a deposit payment reaches a terminal
// state the guest should hear about.  It carries enough information for
// downstream consumers to render the notification email and write audit
// logs without querying the primary database.
type PaymentEvent struct {
    EventID          string `json:"event_id"`
    Type             string `json:"type"`
    ReservationID    uint64 `json:"reservation_id"`
    GuestName        string `json:"guest_name"`
    Email            string `json:"email"`
    Date             string `json:"date"`
    Time             string `json:"time"`
    PartySize        uint32 `json:"party_size"`
    ConfirmationCode string `json:"confirmation_code"`
    AmountCents      int64  `json:"amount_cents"`
    Reason           string `json:"reason,omitempty"`
    OccurredAt       string `json:"occurred_at"`
}
