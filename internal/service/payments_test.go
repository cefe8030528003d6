package service

import (
    "context"
    "fmt"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/restaurant-payments/internal/gateway"
    "github.com/iliyamo/restaurant-payments/internal/model"
    "github.com/iliyamo/restaurant-payments/internal/queue"
    "github.com/iliyamo/restaurant-payments/internal/repository"
)

// ----- in-memory fakes -----

type fakePaymentStore struct {
    nextID   uint64
    byResID  map[uint64]*model.Payment
    listJoin []repository.AdminPaymentDetail
}

func newFakePaymentStore() *fakePaymentStore {
    return &fakePaymentStore{nextID: 1, byResID: map[uint64]*model.Payment{}}
}

func (f *fakePaymentStore) CreateOrGet(_ context.Context, reservationID uint64, amountCents int64, code string) (*model.Payment, error) {
    if p, ok := f.byResID[reservationID]; ok {
        cp := *p
        return &cp, nil
    }
    p := &model.Payment{
        ID:               f.nextID,
        ReservationID:    reservationID,
        AmountCents:      amountCents,
        Status:           model.PaymentStatusPending,
        ConfirmationCode: code,
        CreatedAt:        time.Now().UTC(),
    }
    f.nextID++
    f.byResID[reservationID] = p
    cp := *p
    return &cp, nil
}

func (f *fakePaymentStore) get(id uint64) *model.Payment {
    for _, p := range f.byResID {
        if p.ID == id {
            return p
        }
    }
    return nil
}

func (f *fakePaymentStore) GetByID(_ context.Context, id uint64) (*model.Payment, error) {
    if p := f.get(id); p != nil {
        cp := *p
        return &cp, nil
    }
    return nil, repository.ErrPaymentNotFound
}

func (f *fakePaymentStore) GetByReservationID(_ context.Context, reservationID uint64) (*model.Payment, error) {
    if p, ok := f.byResID[reservationID]; ok {
        cp := *p
        return &cp, nil
    }
    return nil, repository.ErrPaymentNotFound
}

func (f *fakePaymentStore) SetPayerRef(_ context.Context, id uint64, ref string) error {
    f.get(id).PayerRef = &ref
    return nil
}

func (f *fakePaymentStore) SetAuthorization(_ context.Context, id uint64, authID string) error {
    p := f.get(id)
    p.AuthorizationID = &authID
    p.Status = model.PaymentStatusPending
    return nil
}

func (f *fakePaymentStore) MarkCompleted(_ context.Context, id uint64, txnID, last4, brand string, paidAt time.Time) error {
    p := f.get(id)
    p.Status = model.PaymentStatusCompleted
    p.TransactionID = &txnID
    p.PaidAt = &paidAt
    method := "card"
    p.PaymentMethod = &method
    if last4 != "" {
        p.Last4Digits = &last4
    }
    if brand != "" {
        p.CardBrand = &brand
    }
    return nil
}

func (f *fakePaymentStore) MarkFailed(_ context.Context, id uint64, reason string) error {
    p := f.get(id)
    p.Status = model.PaymentStatusFailed
    p.FailureReason = &reason
    return nil
}

func (f *fakePaymentStore) MarkRefunded(_ context.Context, id uint64, refundID, reason string, refundedAt time.Time) error {
    p := f.get(id)
    p.Status = model.PaymentStatusRefunded
    p.RefundID = &refundID
    p.RefundReason = &reason
    p.RefundedAt = &refundedAt
    return nil
}

func (f *fakePaymentStore) AdminUpdate(_ context.Context, id uint64, method, status *string) (*model.Payment, error) {
    p := f.get(id)
    if p == nil {
        return nil, repository.ErrPaymentNotFound
    }
    if method != nil {
        p.PaymentMethod = method
    }
    if status != nil {
        p.Status = *status
    }
    cp := *p
    return &cp, nil
}

func (f *fakePaymentStore) ListWithReservations(_ context.Context) ([]repository.AdminPaymentDetail, error) {
    return f.listJoin, nil
}

type fakeReservationStore struct {
    byID map[uint64]*model.Reservation
}

func (f *fakeReservationStore) GetByID(_ context.Context, id uint64) (*model.Reservation, error) {
    if r, ok := f.byID[id]; ok {
        cp := *r
        return &cp, nil
    }
    return nil, repository.ErrReservationNotFound
}

func (f *fakeReservationStore) UpdatePaymentStatus(_ context.Context, id uint64, status string) error {
    r, ok := f.byID[id]
    if !ok {
        return repository.ErrReservationNotFound
    }
    r.PaymentStatus = status
    return nil
}

// fakeGateway answers every gateway call from canned values and records
// what it was asked to do.
type fakeGateway struct {
    payers         map[string]*gateway.Payer
    createdPayers  int
    authStatus     string
    authCard       gateway.CardDetails
    authLastError  string
    refundErr      error
    createAuthSeen []gateway.AuthorizationParams
    refundsSeen    []string
}

func newFakeGateway() *fakeGateway {
    return &fakeGateway{payers: map[string]*gateway.Payer{}, authStatus: "requires_payment_method"}
}

func (g *fakeGateway) FindOrCreatePayer(_ context.Context, email string, _ map[string]string) (*gateway.Payer, error) {
    if p, ok := g.payers[email]; ok {
        return p, nil
    }
    g.createdPayers++
    p := &gateway.Payer{ID: fmt.Sprintf("cus_%d", g.createdPayers), Email: email}
    g.payers[email] = p
    return p, nil
}

func (g *fakeGateway) CreateAuthorization(_ context.Context, params gateway.AuthorizationParams) (*gateway.Authorization, error) {
    g.createAuthSeen = append(g.createAuthSeen, params)
    n := len(g.createAuthSeen)
    return &gateway.Authorization{
        ID:           fmt.Sprintf("pi_%d", n),
        ClientSecret: fmt.Sprintf("pi_%d_secret_abc", n),
        Status:       "requires_payment_method",
        AmountCents:  params.AmountCents,
    }, nil
}

func (g *fakeGateway) RetrieveAuthorization(_ context.Context, id string) (*gateway.Authorization, error) {
    return &gateway.Authorization{
        ID:               id,
        Status:           g.authStatus,
        Card:             g.authCard,
        LastErrorMessage: g.authLastError,
    }, nil
}

func (g *fakeGateway) CreateRefund(_ context.Context, authorizationID, _ string) (*gateway.Refund, error) {
    if g.refundErr != nil {
        return nil, g.refundErr
    }
    g.refundsSeen = append(g.refundsSeen, authorizationID)
    return &gateway.Refund{ID: "re_1", Status: "succeeded"}, nil
}

// ----- fixture -----

type fixture struct {
    svc      *PaymentService
    payments *fakePaymentStore
    res      *fakeReservationStore
    gw       *fakeGateway
    events   []queue.PaymentEvent
}

func newFixture(t *testing.T) *fixture {
    t.Helper()
    f := &fixture{
        payments: newFakePaymentStore(),
        res: &fakeReservationStore{byID: map[uint64]*model.Reservation{
            1: {
                ID: 1, GuestName: "Ada Lovelace", Email: "ada@example.com",
                Phone: "555-0101", Date: "2026-09-12", Time: "19:30", PartySize: 4,
                ConfirmationCode: "R7KQ2M", PaymentStatus: model.ReservationPaymentUnset,
            },
        }},
        gw: newFakeGateway(),
    }
    publish := func(_ context.Context, ev queue.PaymentEvent) error {
        f.events = append(f.events, ev)
        return nil
    }
    f.svc = NewPaymentService(f.payments, f.res, f.gw, publish, "usd")
    return f
}

// ----- CreateIntent -----

func TestCreateIntentNewPayment(t *testing.T) {
    f := newFixture(t)

    out, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    assert.NotEmpty(t, out.ClientSecret)
    assert.Equal(t, int64(5000), out.AmountCents)
    assert.Equal(t, uint64(1), out.ReservationID)

    p, err := f.payments.GetByReservationID(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusPending, p.Status)
    assert.Equal(t, int64(5000), p.AmountCents)
    require.NotNil(t, p.PayerRef)
    require.NotNil(t, p.AuthorizationID)

    res, _ := f.res.GetByID(context.Background(), 1)
    assert.Equal(t, model.ReservationPaymentPending, res.PaymentStatus)

    // metadata and description carry the reservation context
    require.Len(t, f.gw.createAuthSeen, 1)
    params := f.gw.createAuthSeen[0]
    assert.Equal(t, "1", params.Metadata["reservation_id"])
    assert.Equal(t, "R7KQ2M", params.Metadata["confirmation_code"])
    assert.Contains(t, params.Description, "Ada Lovelace")
    assert.Contains(t, params.Description, "2026-09-12")
}

func TestCreateIntentReusesPaymentAndPayer(t *testing.T) {
    f := newFixture(t)

    first, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)
    second, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    // same payment row, same payer, fresh authorization
    assert.Equal(t, first.ReservationID, second.ReservationID)
    assert.Equal(t, 1, f.gw.createdPayers)
    assert.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, "cus_1", *p.PayerRef)
}

func TestCreateIntentValidation(t *testing.T) {
    f := newFixture(t)

    cases := []struct {
        name          string
        reservationID uint64
        amount        int64
        email         string
    }{
        {"missing reservation", 0, 5000, "a@b.com"},
        {"zero amount", 1, 0, "a@b.com"},
        {"negative amount", 1, -100, "a@b.com"},
        {"missing email", 1, 5000, ""},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            _, err := f.svc.CreateIntent(context.Background(), tc.reservationID, tc.amount, tc.email)
            assert.ErrorIs(t, err, ErrValidation)
        })
    }
}

func TestCreateIntentReservationMissing(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.CreateIntent(context.Background(), 99, 5000, "a@b.com")
    assert.ErrorIs(t, err, repository.ErrReservationNotFound)
}

func TestCreateIntentNotConfigured(t *testing.T) {
    f := newFixture(t)
    svc := NewPaymentService(f.payments, f.res, nil, nil, "usd")
    _, err := svc.CreateIntent(context.Background(), 1, 5000, "a@b.com")
    assert.ErrorIs(t, err, ErrNotConfigured)
}

// ----- Confirm -----

func TestConfirmSucceeded(t *testing.T) {
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    f.gw.authStatus = "succeeded"
    f.gw.authCard = gateway.CardDetails{Last4: "4242", Brand: "visa"}

    out, err := f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    assert.True(t, out.Success)
    require.NotNil(t, out.Reservation)
    assert.Equal(t, model.ReservationPaymentCompleted, out.Reservation.PaymentStatus)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, model.PaymentStatusCompleted, p.Status)
    require.NotNil(t, p.Last4Digits)
    assert.Equal(t, "4242", *p.Last4Digits)
    require.NotNil(t, p.CardBrand)
    assert.Equal(t, "VISA", *p.CardBrand)
    require.NotNil(t, p.TransactionID)
    assert.Equal(t, intent.PaymentIntentID, *p.TransactionID)
    require.NotNil(t, p.PaidAt)

    // notification side effect
    require.Len(t, f.events, 1)
    assert.Equal(t, queue.EventPaymentConfirmed, f.events[0].Type)
    assert.Equal(t, int64(5000), f.events[0].AmountCents)
    assert.Equal(t, "R7KQ2M", f.events[0].ConfirmationCode)
}

func TestConfirmSucceededWithoutCardDetails(t *testing.T) {
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    // processor exposed no charge details; confirm must still succeed
    f.gw.authStatus = "succeeded"

    out, err := f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    assert.True(t, out.Success)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, model.PaymentStatusCompleted, p.Status)
    assert.Nil(t, p.Last4Digits)
    assert.Nil(t, p.CardBrand)
}

func TestConfirmProcessingDoesNotMutate(t *testing.T) {
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)
    before, _ := f.payments.GetByReservationID(context.Background(), 1)

    f.gw.authStatus = "processing"

    out, err := f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    assert.False(t, out.Success)
    assert.Equal(t, "processing", out.Status)

    after, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, before.Status, after.Status)
    res, _ := f.res.GetByID(context.Background(), 1)
    assert.Equal(t, model.ReservationPaymentPending, res.PaymentStatus)
    assert.Empty(t, f.events)
}

func TestConfirmDeclineIsNotAnError(t *testing.T) {
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    f.gw.authStatus = "requires_payment_method"
    f.gw.authLastError = "Your card was declined."

    out, err := f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    assert.False(t, out.Success)
    assert.Equal(t, "Your card was declined.", out.Message)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, model.PaymentStatusFailed, p.Status)
    require.NotNil(t, p.FailureReason)
    assert.Equal(t, "Your card was declined.", *p.FailureReason)

    res, _ := f.res.GetByID(context.Background(), 1)
    assert.Equal(t, model.ReservationPaymentFailed, res.PaymentStatus)
    assert.Empty(t, f.events)
}

func TestConfirmDeclineDefaultReason(t *testing.T) {
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)

    f.gw.authStatus = "canceled"

    out, err := f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    assert.False(t, out.Success)
    assert.Equal(t, "payment was declined", out.Message)
}

func TestConfirmValidation(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.Confirm(context.Background(), "", 1)
    assert.ErrorIs(t, err, ErrValidation)
    _, err = f.svc.Confirm(context.Background(), "pi_1", 0)
    assert.ErrorIs(t, err, ErrValidation)
}

// ----- Refund -----

func completedFixture(t *testing.T) (*fixture, string) {
    t.Helper()
    f := newFixture(t)
    intent, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)
    f.gw.authStatus = "succeeded"
    _, err = f.svc.Confirm(context.Background(), intent.PaymentIntentID, 1)
    require.NoError(t, err)
    f.events = nil
    return f, intent.PaymentIntentID
}

func TestRefundCompletedPayment(t *testing.T) {
    f, intentID := completedFixture(t)

    out, err := f.svc.Refund(context.Background(), 1, "Guest cancelled")
    require.NoError(t, err)
    assert.True(t, out.Success)
    assert.Equal(t, "re_1", out.RefundID)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, model.PaymentStatusRefunded, p.Status)
    require.NotNil(t, p.RefundReason)
    assert.Equal(t, "Guest cancelled", *p.RefundReason)
    require.NotNil(t, p.RefundedAt)

    res, _ := f.res.GetByID(context.Background(), 1)
    assert.Equal(t, model.ReservationPaymentRefunded, res.PaymentStatus)

    // refund targets the settled transaction
    require.Len(t, f.gw.refundsSeen, 1)
    assert.Equal(t, intentID, f.gw.refundsSeen[0])

    require.Len(t, f.events, 1)
    assert.Equal(t, queue.EventPaymentRefunded, f.events[0].Type)
    assert.Equal(t, "Guest cancelled", f.events[0].Reason)
}

func TestRefundDefaultReason(t *testing.T) {
    f, _ := completedFixture(t)

    _, err := f.svc.Refund(context.Background(), 1, "")
    require.NoError(t, err)

    p, _ := f.payments.GetByReservationID(context.Background(), 1)
    require.NotNil(t, p.RefundReason)
    assert.Equal(t, "Reservation cancelled", *p.RefundReason)
}

func TestRefundRequiresCompletedStatus(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)
    before, _ := f.payments.GetByReservationID(context.Background(), 1)

    _, err = f.svc.Refund(context.Background(), 1, "")
    assert.ErrorIs(t, err, ErrInvalidState)

    // no mutation on the rejected path
    after, _ := f.payments.GetByReservationID(context.Background(), 1)
    assert.Equal(t, before.Status, after.Status)
    assert.Nil(t, after.RefundID)
    assert.Empty(t, f.gw.refundsSeen)
}

func TestRefundIsNotRepeatable(t *testing.T) {
    f, _ := completedFixture(t)

    _, err := f.svc.Refund(context.Background(), 1, "")
    require.NoError(t, err)
    _, err = f.svc.Refund(context.Background(), 1, "")
    assert.ErrorIs(t, err, ErrInvalidState)
    assert.Len(t, f.gw.refundsSeen, 1)
}

func TestRefundNoPayment(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.Refund(context.Background(), 2, "")
    assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

func TestRefundNotConfigured(t *testing.T) {
    f := newFixture(t)
    svc := NewPaymentService(f.payments, f.res, nil, nil, "usd")
    _, err := svc.Refund(context.Background(), 1, "")
    assert.ErrorIs(t, err, ErrNotConfigured)
}

// ----- GetStatus -----

func TestGetStatus(t *testing.T) {
    f, _ := completedFixture(t)

    out, err := f.svc.GetStatus(context.Background(), 1)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusCompleted, out.Status)
    assert.Equal(t, int64(5000), out.AmountCents)
    assert.Equal(t, model.ReservationPaymentCompleted, out.ReservationStatus)
    require.NotNil(t, out.PaidAt)
}

func TestGetStatusNoPayment(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.GetStatus(context.Background(), 1)
    assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}

// ----- AdminUpdate -----

func TestAdminUpdateForcesReservationStatus(t *testing.T) {
    f := newFixture(t)
    _, err := f.svc.CreateIntent(context.Background(), 1, 5000, "ada@example.com")
    require.NoError(t, err)
    p, _ := f.payments.GetByReservationID(context.Background(), 1)

    status := model.PaymentStatusCompleted
    method := "bank_transfer"
    updated, err := f.svc.AdminUpdate(context.Background(), p.ID, &method, &status)
    require.NoError(t, err)
    assert.Equal(t, model.PaymentStatusCompleted, updated.Status)
    require.NotNil(t, updated.PaymentMethod)
    assert.Equal(t, "bank_transfer", *updated.PaymentMethod)

    res, _ := f.res.GetByID(context.Background(), 1)
    assert.Equal(t, model.ReservationPaymentCompleted, res.PaymentStatus)
}

func TestAdminUpdateRejectsUnknownStatus(t *testing.T) {
    f := newFixture(t)
    bad := "SETTLED"
    _, err := f.svc.AdminUpdate(context.Background(), 1, nil, &bad)
    assert.ErrorIs(t, err, ErrValidation)
}

func TestAdminUpdateUnknownPayment(t *testing.T) {
    f := newFixture(t)
    status := model.PaymentStatusFailed
    _, err := f.svc.AdminUpdate(context.Background(), 42, nil, &status)
    assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
}
