package gateway

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *StripeGateway {
    t.Helper()
    srv := httptest.NewServer(handler)
    t.Cleanup(srv.Close)
    return NewStripeGateway("sk_test_123").WithBaseURL(srv.URL)
}

func TestFindOrCreatePayerReusesExisting(t *testing.T) {
    var sawCreate bool
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        switch {
        case r.Method == http.MethodGet && r.URL.Path == "/customers":
            assert.Equal(t, "ada@example.com", r.URL.Query().Get("email"))
            json.NewEncoder(w).Encode(map[string]interface{}{
                "data": []map[string]string{{"id": "cus_existing", "email": "ada@example.com"}},
            })
        case r.Method == http.MethodPost && r.URL.Path == "/customers":
            sawCreate = true
        default:
            t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
        }
    })

    payer, err := gw.FindOrCreatePayer(context.Background(), "ada@example.com", nil)
    require.NoError(t, err)
    assert.Equal(t, "cus_existing", payer.ID)
    assert.False(t, sawCreate, "existing payer must be reused, not recreated")
}

func TestFindOrCreatePayerCreatesWithMetadata(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        switch {
        case r.Method == http.MethodGet && r.URL.Path == "/customers":
            json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
        case r.Method == http.MethodPost && r.URL.Path == "/customers":
            require.NoError(t, r.ParseForm())
            assert.Equal(t, "ada@example.com", r.PostForm.Get("email"))
            assert.Equal(t, "1", r.PostForm.Get("metadata[reservation_id]"))
            assert.Equal(t, "R7KQ2M", r.PostForm.Get("metadata[confirmation_code]"))
            user, _, _ := r.BasicAuth()
            assert.Equal(t, "sk_test_123", user)
            json.NewEncoder(w).Encode(map[string]string{"id": "cus_new", "email": "ada@example.com"})
        default:
            t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
        }
    })

    payer, err := gw.FindOrCreatePayer(context.Background(), "ada@example.com", map[string]string{
        "reservation_id":    "1",
        "confirmation_code": "R7KQ2M",
    })
    require.NoError(t, err)
    assert.Equal(t, "cus_new", payer.ID)
}

func TestCreateAuthorization(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, http.MethodPost, r.Method)
        require.Equal(t, "/payment_intents", r.URL.Path)
        require.NoError(t, r.ParseForm())
        assert.Equal(t, "5000", r.PostForm.Get("amount"))
        assert.Equal(t, "usd", r.PostForm.Get("currency"))
        assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
        assert.Equal(t, "1", r.PostForm.Get("metadata[reservation_id]"))
        json.NewEncoder(w).Encode(map[string]interface{}{
            "id":            "pi_1",
            "client_secret": "pi_1_secret_xyz",
            "status":        "requires_payment_method",
            "amount":        5000,
        })
    })

    auth, err := gw.CreateAuthorization(context.Background(), AuthorizationParams{
        AmountCents: 5000,
        Currency:    "usd",
        PayerID:     "cus_1",
        Description: "Reservation deposit",
        Metadata:    map[string]string{"reservation_id": "1"},
    })
    require.NoError(t, err)
    assert.Equal(t, "pi_1", auth.ID)
    assert.Equal(t, "pi_1_secret_xyz", auth.ClientSecret)
    assert.Equal(t, int64(5000), auth.AmountCents)
}

func TestRetrieveAuthorizationWithChargeDetails(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/payment_intents/pi_1", r.URL.Path)
        assert.Equal(t, "latest_charge", r.URL.Query().Get("expand[]"))
        json.NewEncoder(w).Encode(map[string]interface{}{
            "id":     "pi_1",
            "status": "succeeded",
            "latest_charge": map[string]interface{}{
                "payment_method_details": map[string]interface{}{
                    "card": map[string]string{"last4": "4242", "brand": "visa"},
                },
            },
        })
    })

    auth, err := gw.RetrieveAuthorization(context.Background(), "pi_1")
    require.NoError(t, err)
    assert.Equal(t, "succeeded", auth.Status)
    assert.Equal(t, "4242", auth.Card.Last4)
    assert.Equal(t, "visa", auth.Card.Brand)
}

func TestRetrieveAuthorizationDecline(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        json.NewEncoder(w).Encode(map[string]interface{}{
            "id":     "pi_1",
            "status": "requires_payment_method",
            "last_payment_error": map[string]string{
                "message": "Your card was declined.",
            },
        })
    })

    auth, err := gw.RetrieveAuthorization(context.Background(), "pi_1")
    require.NoError(t, err)
    assert.Equal(t, "requires_payment_method", auth.Status)
    assert.Equal(t, "Your card was declined.", auth.LastErrorMessage)
}

func TestCreateRefundPassesReasonInMetadata(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        require.Equal(t, "/refunds", r.URL.Path)
        require.NoError(t, r.ParseForm())
        assert.Equal(t, "pi_1", r.PostForm.Get("payment_intent"))
        assert.Equal(t, "Guest cancelled", r.PostForm.Get("metadata[reason]"))
        json.NewEncoder(w).Encode(map[string]string{"id": "re_1", "status": "succeeded"})
    })

    refund, err := gw.CreateRefund(context.Background(), "pi_1", "Guest cancelled")
    require.NoError(t, err)
    assert.Equal(t, "re_1", refund.ID)
}

func TestProcessorErrorIsSurfaced(t *testing.T) {
    gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusPaymentRequired)
        json.NewEncoder(w).Encode(map[string]interface{}{
            "error": map[string]string{
                "code":    "amount_too_small",
                "message": "Amount must be at least 50 cents.",
            },
        })
    })

    _, err := gw.CreateAuthorization(context.Background(), AuthorizationParams{AmountCents: 1, Currency: "usd"})
    require.Error(t, err)
    var gwErr *Error
    require.ErrorAs(t, err, &gwErr)
    assert.Equal(t, "amount_too_small", gwErr.Code)
    assert.Equal(t, "Amount must be at least 50 cents.", gwErr.Message)
    assert.Equal(t, http.StatusPaymentRequired, gwErr.StatusCode)
}
