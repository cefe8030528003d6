package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/restaurant-payments/internal/gateway"
    "github.com/iliyamo/restaurant-payments/internal/repository"
    "github.com/iliyamo/restaurant-payments/internal/service"
)

// PaymentHandler exposes the guest-facing deposit endpoints: intent
// creation, confirmation, status lookup and refund.  All business rules
// live in the service layer; this file only binds request bodies,
// validates shapes at the boundary and maps service errors to HTTP
// status codes.
type PaymentHandler struct {
    Svc *service.PaymentService
}

// NewPaymentHandler constructs a PaymentHandler.  The service must be non-nil.
func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
    if svc == nil {
        panic("nil service passed to NewPaymentHandler")
    }
    return &PaymentHandler{Svc: svc}
}

// ----- DTOs -----

type createIntentReq struct {
    ReservationID uint64 `json:"reservation_id"`
    AmountCents   int64  `json:"amount_cents"`
    Email         string `json:"email"`
}

type confirmReq struct {
    PaymentIntentID string `json:"payment_intent_id"`
    ReservationID   uint64 `json:"reservation_id"`
}

type refundReq struct {
    Reason string `json:"reason"`
}

// paymentError maps the service error taxonomy onto HTTP responses.
// Gateway failures keep the processor's message attached for
// diagnostics.
func paymentError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, service.ErrNotConfigured):
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, service.ErrInvalidState):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, repository.ErrPaymentNotFound),
        errors.Is(err, repository.ErrReservationNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    }
    var gwErr *gateway.Error
    if errors.As(err, &gwErr) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment processor error", "detail": gwErr.Message})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// CreateIntent handles POST /payments/reservation/create-intent.  It
// returns the client secret the browser needs to complete the charge.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    var req createIntentReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    out, err := h.Svc.CreateIntent(c.Request().Context(), req.ReservationID, req.AmountCents, req.Email)
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Confirm handles POST /payments/reservation/confirm.  The response is
// 200 for every business outcome (confirmed, declined, processing);
// only validation and infrastructure failures use error status codes.
func (h *PaymentHandler) Confirm(c echo.Context) error {
    var req confirmReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    out, err := h.Svc.Confirm(c.Request().Context(), req.PaymentIntentID, req.ReservationID)
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// GetStatus handles GET /payments/reservation/status/:reservationId.
func (h *PaymentHandler) GetStatus(c echo.Context) error {
    reservationID, err := strconv.ParseUint(c.Param("reservationId"), 10, 64)
    if err != nil || reservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    out, err := h.Svc.GetStatus(c.Request().Context(), reservationID)
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Refund handles POST /payments/reservation/refund/:reservationId.  The
// body is optional; when present it may carry a reason shown to the
// guest in the refund email.
func (h *PaymentHandler) Refund(c echo.Context) error {
    reservationID, err := strconv.ParseUint(c.Param("reservationId"), 10, 64)
    if err != nil || reservationID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
    }
    var req refundReq
    if c.Request().ContentLength > 0 {
        if err := c.Bind(&req); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
        }
    }
    out, err := h.Svc.Refund(c.Request().Context(), reservationID, req.Reason)
    if err != nil {
        return paymentError(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
