package service

import (
    "context"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/restaurant-payments/internal/gateway"
    "github.com/iliyamo/restaurant-payments/internal/model"
    "github.com/iliyamo/restaurant-payments/internal/queue"
    "github.com/iliyamo/restaurant-payments/internal/repository"
)

// PaymentStore is the persistence surface the service needs for
// payments.  It is implemented by repository.PaymentRepo and by
// in-memory fakes in tests.
type PaymentStore interface {
    CreateOrGet(ctx context.Context, reservationID uint64, amountCents int64, confirmationCode string) (*model.Payment, error)
    GetByID(ctx context.Context, id uint64) (*model.Payment, error)
    GetByReservationID(ctx context.Context, reservationID uint64) (*model.Payment, error)
    SetPayerRef(ctx context.Context, id uint64, payerRef string) error
    SetAuthorization(ctx context.Context, id uint64, authorizationID string) error
    MarkCompleted(ctx context.Context, id uint64, transactionID, last4, brand string, paidAt time.Time) error
    MarkFailed(ctx context.Context, id uint64, reason string) error
    MarkRefunded(ctx context.Context, id uint64, refundID, reason string, refundedAt time.Time) error
    AdminUpdate(ctx context.Context, id uint64, paymentMethod, status *string) (*model.Payment, error)
    ListWithReservations(ctx context.Context) ([]repository.AdminPaymentDetail, error)
}

// ReservationStore is the slice of the reservation subsystem this
// service consumes: lookups plus the single column it owns.
type ReservationStore interface {
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    UpdatePaymentStatus(ctx context.Context, id uint64, status string) error
}

// EventPublisher delivers a payment event to the notification
// pipeline.  Publishing is fire-and-forget from the service's point of
// view: errors are logged by the publisher and ignored here.
type EventPublisher func(ctx context.Context, event queue.PaymentEvent) error

// PaymentService ties the payment store, the reservation store and the
// processor gateway together.  A nil gateway means no processor
// credential was configured; every operation that would talk to the
// processor then fails with ErrNotConfigured.
type PaymentService struct {
    payments     PaymentStore
    reservations ReservationStore
    gw           gateway.PaymentGateway
    publish      EventPublisher
    currency     string
}

// NewPaymentService constructs the service.  publish may be nil, in
// which case no notifications are emitted.
func NewPaymentService(payments PaymentStore, reservations ReservationStore, gw gateway.PaymentGateway, publish EventPublisher, currency string) *PaymentService {
    if payments == nil || reservations == nil {
        panic("nil store passed to NewPaymentService")
    }
    if currency == "" {
        currency = "usd"
    }
    return &PaymentService{
        payments:     payments,
        reservations: reservations,
        gw:           gw,
        publish:      publish,
        currency:     currency,
    }
}

// IntentResult is returned by CreateIntent and carries everything the
// client needs to complete the charge in the browser.
type IntentResult struct {
    ClientSecret    string `json:"client_secret"`
    PaymentIntentID string `json:"payment_intent_id"`
    AmountCents     int64  `json:"amount_cents"`
    ReservationID   uint64 `json:"reservation_id"`
}

// CreateIntent creates or reuses the payment row for a reservation,
// resolves the payer identity at the processor and requests a charge
// authorization.  The operation is safe to retry: the payment row and
// payer reference are reused across calls, only the authorization is
// issued fresh.
func (s *PaymentService) CreateIntent(ctx context.Context, reservationID uint64, amountCents int64, email string) (*IntentResult, error) {
    if s.gw == nil {
        return nil, ErrNotConfigured
    }
    if reservationID == 0 {
        return nil, fmt.Errorf("%w: reservation_id is required", ErrValidation)
    }
    if amountCents <= 0 {
        return nil, fmt.Errorf("%w: amount_cents must be a positive integer", ErrValidation)
    }
    if strings.TrimSpace(email) == "" {
        return nil, fmt.Errorf("%w: email is required", ErrValidation)
    }

    res, err := s.reservations.GetByID(ctx, reservationID)
    if err != nil {
        return nil, err
    }

    payment, err := s.payments.CreateOrGet(ctx, reservationID, amountCents, res.ConfirmationCode)
    if err != nil {
        return nil, err
    }

    // Resolve the payer once and pin it on the payment row so later
    // attempts reuse the same processor customer.
    payerRef := ""
    if payment.PayerRef != nil {
        payerRef = *payment.PayerRef
    } else {
        payer, err := s.gw.FindOrCreatePayer(ctx, email, map[string]string{
            "reservation_id":    fmt.Sprintf("%d", reservationID),
            "confirmation_code": res.ConfirmationCode,
        })
        if err != nil {
            return nil, err
        }
        payerRef = payer.ID
        if err := s.payments.SetPayerRef(ctx, payment.ID, payerRef); err != nil {
            return nil, err
        }
    }

    auth, err := s.gw.CreateAuthorization(ctx, gateway.AuthorizationParams{
        AmountCents: payment.AmountCents,
        Currency:    s.currency,
        PayerID:     payerRef,
        Description: fmt.Sprintf("Reservation deposit for %s on %s at %s", res.GuestName, res.Date, res.Time),
        Metadata: map[string]string{
            "reservation_id":    fmt.Sprintf("%d", reservationID),
            "confirmation_code": res.ConfirmationCode,
            "email":             email,
        },
    })
    if err != nil {
        return nil, err
    }
    if err := s.payments.SetAuthorization(ctx, payment.ID, auth.ID); err != nil {
        return nil, err
    }
    if err := s.reservations.UpdatePaymentStatus(ctx, reservationID, model.ReservationPaymentPending); err != nil {
        return nil, err
    }

    return &IntentResult{
        ClientSecret:    auth.ClientSecret,
        PaymentIntentID: auth.ID,
        AmountCents:     payment.AmountCents,
        ReservationID:   reservationID,
    }, nil
}

// ConfirmResult is the outcome of a confirmation attempt.  Success is
// false both for declines and for the non-terminal "processing" state;
// Status distinguishes the two so the caller knows whether to retry.
type ConfirmResult struct {
    Success     bool               `json:"success"`
    Message     string             `json:"message"`
    Status      string             `json:"status,omitempty"`
    Reservation *model.Reservation `json:"reservation,omitempty"`
}

// Confirm reconciles the processor's authorization result with the
// stored payment and the reservation's payment status.  A card decline
// is a normal business outcome returned with Success=false; only
// infrastructure failures (store or processor unreachable) come back as
// errors.
func (s *PaymentService) Confirm(ctx context.Context, authorizationID string, reservationID uint64) (*ConfirmResult, error) {
    if s.gw == nil {
        return nil, ErrNotConfigured
    }
    if strings.TrimSpace(authorizationID) == "" {
        return nil, fmt.Errorf("%w: payment_intent_id is required", ErrValidation)
    }
    if reservationID == 0 {
        return nil, fmt.Errorf("%w: reservation_id is required", ErrValidation)
    }

    auth, err := s.gw.RetrieveAuthorization(ctx, authorizationID)
    if err != nil {
        return nil, err
    }

    switch auth.Status {
    case "succeeded":
        payment, err := s.payments.GetByReservationID(ctx, reservationID)
        if err != nil {
            return nil, err
        }
        brand := strings.ToUpper(auth.Card.Brand)
        if err := s.payments.MarkCompleted(ctx, payment.ID, authorizationID, auth.Card.Last4, brand, time.Now().UTC()); err != nil {
            return nil, err
        }
        if err := s.reservations.UpdatePaymentStatus(ctx, reservationID, model.ReservationPaymentCompleted); err != nil {
            return nil, err
        }
        res, err := s.reservations.GetByID(ctx, reservationID)
        if err != nil {
            return nil, err
        }
        s.emit(ctx, queue.EventPaymentConfirmed, res, payment.AmountCents, "")
        return &ConfirmResult{
            Success:     true,
            Message:     "payment confirmed",
            Reservation: res,
        }, nil

    case "processing":
        // Non-terminal: the caller should poll again. No record is
        // touched so a later confirm sees a clean pending state.
        return &ConfirmResult{
            Success: false,
            Message: "payment is still processing, try again shortly",
            Status:  "processing",
        }, nil

    default:
        reason := auth.LastErrorMessage
        if reason == "" {
            reason = "payment was declined"
        }
        payment, err := s.payments.GetByReservationID(ctx, reservationID)
        if err != nil {
            return nil, err
        }
        if err := s.payments.MarkFailed(ctx, payment.ID, reason); err != nil {
            return nil, err
        }
        if err := s.reservations.UpdatePaymentStatus(ctx, reservationID, model.ReservationPaymentFailed); err != nil {
            return nil, err
        }
        return &ConfirmResult{
            Success: false,
            Message: reason,
        }, nil
    }
}

// RefundResult carries the processor refund id for a successful refund.
type RefundResult struct {
    Success  bool   `json:"success"`
    Message  string `json:"message"`
    RefundID string `json:"refund_id"`
}

// Refund reverses a completed deposit.  It requires the payment to be
// in COMPLETED status; a second refund attempt therefore fails with
// ErrInvalidState because the first one moved the row to REFUNDED.
func (s *PaymentService) Refund(ctx context.Context, reservationID uint64, reason string) (*RefundResult, error) {
    if s.gw == nil {
        return nil, ErrNotConfigured
    }
    if reservationID == 0 {
        return nil, fmt.Errorf("%w: reservation_id is required", ErrValidation)
    }

    payment, err := s.payments.GetByReservationID(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    if payment.Status != model.PaymentStatusCompleted {
        return nil, ErrInvalidState
    }

    if strings.TrimSpace(reason) == "" {
        reason = "Reservation cancelled"
    }

    // A completed payment always carries the settled transaction id;
    // fall back to the authorization id for rows fixed up by hand.
    ref := ""
    if payment.TransactionID != nil {
        ref = *payment.TransactionID
    } else if payment.AuthorizationID != nil {
        ref = *payment.AuthorizationID
    }
    if ref == "" {
        return nil, ErrInvalidState
    }

    refund, err := s.gw.CreateRefund(ctx, ref, reason)
    if err != nil {
        return nil, err
    }

    if err := s.payments.MarkRefunded(ctx, payment.ID, refund.ID, reason, time.Now().UTC()); err != nil {
        return nil, err
    }
    if err := s.reservations.UpdatePaymentStatus(ctx, reservationID, model.ReservationPaymentRefunded); err != nil {
        return nil, err
    }

    if res, lookupErr := s.reservations.GetByID(ctx, reservationID); lookupErr == nil {
        s.emit(ctx, queue.EventPaymentRefunded, res, payment.AmountCents, reason)
    } else {
        log.Printf("payments: reservation lookup for refund notification failed: %v", lookupErr)
    }

    return &RefundResult{
        Success:  true,
        Message:  "deposit refunded",
        RefundID: refund.ID,
    }, nil
}

// StatusResult reports the current deposit state for one reservation.
type StatusResult struct {
    PaymentID         uint64  `json:"payment_id"`
    Status            string  `json:"status"`
    AmountCents       int64   `json:"amount_cents"`
    PaymentMethod     *string `json:"payment_method,omitempty"`
    Last4Digits       *string `json:"last4_digits,omitempty"`
    CardBrand         *string `json:"card_brand,omitempty"`
    PaidAt            *string `json:"paid_at,omitempty"`
    ReservationStatus string  `json:"reservation_status"`
}

// GetStatus returns the payment's current state joined with the
// reservation's payment status.  Both records must exist.
func (s *PaymentService) GetStatus(ctx context.Context, reservationID uint64) (*StatusResult, error) {
    payment, err := s.payments.GetByReservationID(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    res, err := s.reservations.GetByID(ctx, reservationID)
    if err != nil {
        return nil, err
    }
    out := &StatusResult{
        PaymentID:         payment.ID,
        Status:            payment.Status,
        AmountCents:       payment.AmountCents,
        PaymentMethod:     payment.PaymentMethod,
        Last4Digits:       payment.Last4Digits,
        CardBrand:         payment.CardBrand,
        ReservationStatus: res.PaymentStatus,
    }
    if payment.PaidAt != nil {
        iso := payment.PaidAt.UTC().Format(time.RFC3339)
        out.PaidAt = &iso
    }
    return out, nil
}

// ListAll returns every payment joined with its reservation summary,
// newest first.  Read-only.
func (s *PaymentService) ListAll(ctx context.Context) ([]repository.AdminPaymentDetail, error) {
    return s.payments.ListWithReservations(ctx)
}

// AdminUpdate overwrites payment_method and/or status on a payment,
// bypassing the state machine for manual reconciliation.  Setting the
// status to COMPLETED also forces the linked reservation's payment
// status to COMPLETED so the two records stay consistent.
func (s *PaymentService) AdminUpdate(ctx context.Context, paymentID uint64, paymentMethod, status *string) (*model.Payment, error) {
    if paymentID == 0 {
        return nil, fmt.Errorf("%w: payment_id is required", ErrValidation)
    }
    if status != nil {
        switch *status {
        case model.PaymentStatusPending, model.PaymentStatusCompleted,
            model.PaymentStatusFailed, model.PaymentStatusRefunded:
        default:
            return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *status)
        }
    }
    payment, err := s.payments.AdminUpdate(ctx, paymentID, paymentMethod, status)
    if err != nil {
        return nil, err
    }
    if status != nil && *status == model.PaymentStatusCompleted {
        if err := s.reservations.UpdatePaymentStatus(ctx, payment.ReservationID, model.ReservationPaymentCompleted); err != nil {
            return nil, err
        }
    }
    return payment, nil
}

// emit publishes a payment event.  Failures are logged and swallowed;
// the state change has already committed and must not be affected by a
// broken notification pipeline.
func (s *PaymentService) emit(ctx context.Context, eventType string, res *model.Reservation, amountCents int64, reason string) {
    if s.publish == nil {
        return
    }
    ev := queue.PaymentEvent{
        EventID:          uuid.New().String(),
        Type:             eventType,
        ReservationID:    res.ID,
        GuestName:        res.GuestName,
        Email:            res.Email,
        Date:             res.Date,
        Time:             res.Time,
        PartySize:        res.PartySize,
        ConfirmationCode: res.ConfirmationCode,
        AmountCents:      amountCents,
        Reason:           reason,
        OccurredAt:       time.Now().UTC().Format(time.RFC3339),
    }
    if err := s.publish(ctx, ev); err != nil {
        log.Printf("payments: publish %s event failed: %v", eventType, err)
    }
}
