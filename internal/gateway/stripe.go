package gateway

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "strconv"
    "strings"
    "time"
)

const defaultStripeBaseURL = "https://api.stripe.com/v1"

// StripeGateway implements PaymentGateway against the Stripe REST API.
// Requests are form encoded and authenticated with the secret key via
// HTTP basic auth, matching Stripe's wire protocol.  BaseURL is
// overridable so tests can point the client at a local server.
type StripeGateway struct {
    secretKey string
    baseURL   string
    client    *http.Client
}

// NewStripeGateway builds a gateway using the given secret key.  The
// caller is responsible for checking that the key is present before
// constructing the gateway; an empty key means the payment service is
// not configured.
func NewStripeGateway(secretKey string) *StripeGateway {
    return &StripeGateway{
        secretKey: secretKey,
        baseURL:   defaultStripeBaseURL,
        client:    &http.Client{Timeout: 15 * time.Second},
    }
}

// WithBaseURL returns the gateway with its API base replaced.  Used by
// tests to target an httptest server.
func (g *StripeGateway) WithBaseURL(base string) *StripeGateway {
    g.baseURL = strings.TrimRight(base, "/")
    return g
}

// stripe response shapes; only the fields this service reads are decoded.
type stripeCustomer struct {
    ID    string `json:"id"`
    Email string `json:"email"`
}

type stripeCustomerList struct {
    Data []stripeCustomer `json:"data"`
}

type stripeCharge struct {
    PaymentMethodDetails struct {
        Card struct {
            Last4 string `json:"last4"`
            Brand string `json:"brand"`
        } `json:"card"`
    } `json:"payment_method_details"`
}

type stripePaymentIntent struct {
    ID               string        `json:"id"`
    ClientSecret     string        `json:"client_secret"`
    Status           string        `json:"status"`
    Amount           int64         `json:"amount"`
    LatestCharge     *stripeCharge `json:"latest_charge"`
    LastPaymentError *struct {
        Message string `json:"message"`
    } `json:"last_payment_error"`
}

type stripeRefund struct {
    ID     string `json:"id"`
    Status string `json:"status"`
}

type stripeErrorBody struct {
    Error struct {
        Code    string `json:"code"`
        Message string `json:"message"`
    } `json:"error"`
}

// FindOrCreatePayer searches Stripe customers by email and creates one
// when the search comes back empty.  Metadata is only attached on
// creation; an existing customer is reused as-is.
func (g *StripeGateway) FindOrCreatePayer(ctx context.Context, email string, metadata map[string]string) (*Payer, error) {
    q := url.Values{}
    q.Set("email", email)
    q.Set("limit", "1")
    var list stripeCustomerList
    if err := g.do(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &list); err != nil {
        return nil, err
    }
    if len(list.Data) > 0 {
        return &Payer{ID: list.Data[0].ID, Email: list.Data[0].Email}, nil
    }
    form := url.Values{}
    form.Set("email", email)
    for k, v := range metadata {
        form.Set("metadata["+k+"]", v)
    }
    var created stripeCustomer
    if err := g.do(ctx, http.MethodPost, "/customers", form, &created); err != nil {
        return nil, err
    }
    return &Payer{ID: created.ID, Email: created.Email}, nil
}

// CreateAuthorization creates a payment intent for the payer.
func (g *StripeGateway) CreateAuthorization(ctx context.Context, params AuthorizationParams) (*Authorization, error) {
    form := url.Values{}
    form.Set("amount", strconv.FormatInt(params.AmountCents, 10))
    form.Set("currency", params.Currency)
    form.Set("customer", params.PayerID)
    form.Set("description", params.Description)
    form.Set("automatic_payment_methods[enabled]", "true")
    for k, v := range params.Metadata {
        form.Set("metadata["+k+"]", v)
    }
    var pi stripePaymentIntent
    if err := g.do(ctx, http.MethodPost, "/payment_intents", form, &pi); err != nil {
        return nil, err
    }
    return toAuthorization(&pi), nil
}

// RetrieveAuthorization fetches a payment intent with its latest charge
// expanded so card details are available once the charge settles.
func (g *StripeGateway) RetrieveAuthorization(ctx context.Context, id string) (*Authorization, error) {
    q := url.Values{}
    q.Set("expand[]", "latest_charge")
    var pi stripePaymentIntent
    if err := g.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id)+"?"+q.Encode(), nil, &pi); err != nil {
        return nil, err
    }
    return toAuthorization(&pi), nil
}

// CreateRefund reverses the charge behind a payment intent.  Stripe
// only accepts a fixed enum for `reason`, so the free-text reason from
// the reservation flow travels in metadata instead.
func (g *StripeGateway) CreateRefund(ctx context.Context, authorizationID, reason string) (*Refund, error) {
    form := url.Values{}
    form.Set("payment_intent", authorizationID)
    form.Set("metadata[reason]", reason)
    var rf stripeRefund
    if err := g.do(ctx, http.MethodPost, "/refunds", form, &rf); err != nil {
        return nil, err
    }
    return &Refund{ID: rf.ID, Status: rf.Status}, nil
}

func toAuthorization(pi *stripePaymentIntent) *Authorization {
    a := &Authorization{
        ID:           pi.ID,
        ClientSecret: pi.ClientSecret,
        Status:       pi.Status,
        AmountCents:  pi.Amount,
    }
    if pi.LastPaymentError != nil {
        a.LastErrorMessage = pi.LastPaymentError.Message
    }
    if pi.LatestCharge != nil {
        a.Card = CardDetails{
            Last4: pi.LatestCharge.PaymentMethodDetails.Card.Last4,
            Brand: pi.LatestCharge.PaymentMethodDetails.Card.Brand,
        }
    }
    return a
}

// do performs one API call and decodes the JSON response into out.
// Non-2xx responses are converted into *Error carrying the processor's
// code and message.
func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
    var body io.Reader
    if form != nil {
        body = strings.NewReader(form.Encode())
    }
    req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
    if err != nil {
        return &Error{Message: err.Error()}
    }
    req.SetBasicAuth(g.secretKey, "")
    if form != nil {
        req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
    }
    resp, err := g.client.Do(req)
    if err != nil {
        return &Error{Message: err.Error()}
    }
    defer resp.Body.Close()
    data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
    if err != nil {
        return &Error{StatusCode: resp.StatusCode, Message: err.Error()}
    }
    if resp.StatusCode < 200 || resp.StatusCode >= 300 {
        var eb stripeErrorBody
        if jsonErr := json.Unmarshal(data, &eb); jsonErr == nil && eb.Error.Message != "" {
            return &Error{StatusCode: resp.StatusCode, Code: eb.Error.Code, Message: eb.Error.Message}
        }
        return &Error{StatusCode: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
    }
    if out != nil {
        if err := json.Unmarshal(data, out); err != nil {
            return &Error{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
        }
    }
    return nil
}
