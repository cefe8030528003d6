package handler

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-payments/internal/model"
    "github.com/iliyamo/restaurant-payments/internal/repository"
    "github.com/iliyamo/restaurant-payments/internal/service"
)

// AdminPaymentHandler exposes the privileged payment endpoints used by
// the back-office dashboard.  Routes are protected by JWT auth and the
// ADMIN role in the router.
type AdminPaymentHandler struct {
    Svc *service.PaymentService
}

// NewAdminPaymentHandler constructs an AdminPaymentHandler.
func NewAdminPaymentHandler(svc *service.PaymentService) *AdminPaymentHandler {
    if svc == nil {
        panic("nil service passed to NewAdminPaymentHandler")
    }
    return &AdminPaymentHandler{Svc: svc}
}

type adminUpdateReq struct {
    PaymentMethod *string `json:"payment_method"`
    Status        *string `json:"status"`
}

// paymentView is the JSON shape for a single payment row.  The model
// types carry no json tags, so handlers map them explicitly.
type paymentView struct {
    ID               uint64  `json:"id"`
    ReservationID    uint64  `json:"reservation_id"`
    AmountCents      int64   `json:"amount_cents"`
    Status           string  `json:"status"`
    PaymentMethod    *string `json:"payment_method,omitempty"`
    Last4Digits      *string `json:"last4_digits,omitempty"`
    CardBrand        *string `json:"card_brand,omitempty"`
    ConfirmationCode string  `json:"confirmation_code"`
    FailureReason    *string `json:"failure_reason,omitempty"`
    RefundID         *string `json:"refund_id,omitempty"`
    RefundReason     *string `json:"refund_reason,omitempty"`
    PaidAt           *string `json:"paid_at,omitempty"`
    RefundedAt       *string `json:"refunded_at,omitempty"`
}

func toPaymentView(p *model.Payment) paymentView {
    v := paymentView{
        ID:               p.ID,
        ReservationID:    p.ReservationID,
        AmountCents:      p.AmountCents,
        Status:           p.Status,
        PaymentMethod:    p.PaymentMethod,
        Last4Digits:      p.Last4Digits,
        CardBrand:        p.CardBrand,
        ConfirmationCode: p.ConfirmationCode,
        FailureReason:    p.FailureReason,
        RefundID:         p.RefundID,
        RefundReason:     p.RefundReason,
    }
    if p.PaidAt != nil {
        iso := p.PaidAt.UTC().Format(time.RFC3339)
        v.PaidAt = &iso
    }
    if p.RefundedAt != nil {
        iso := p.RefundedAt.UTC().Format(time.RFC3339)
        v.RefundedAt = &iso
    }
    return v
}

// List handles GET /payments/admin/reservations.  It returns every
// payment joined with its reservation summary, newest first.
func (h *AdminPaymentHandler) List(c echo.Context) error {
    items, err := h.Svc.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load payments"})
    }
    if items == nil {
        items = []repository.AdminPaymentDetail{}
    }
    return c.JSON(http.StatusOK, items)
}

// Update handles PATCH /payments/admin/reservation/:paymentId.  It
// overwrites the given fields directly; this is the manual
// reconciliation path and intentionally bypasses the state machine.
func (h *AdminPaymentHandler) Update(c echo.Context) error {
    paymentID, err := strconv.ParseUint(c.Param("paymentId"), 10, 64)
    if err != nil || paymentID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
    }
    var req adminUpdateReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.PaymentMethod == nil && req.Status == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
    }
    payment, err := h.Svc.AdminUpdate(c.Request().Context(), paymentID, req.PaymentMethod, req.Status)
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "message": "payment updated",
        "payment": toPaymentView(payment),
    })
}
