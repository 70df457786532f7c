package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/craftloom/craftloom-backend/pkg/config"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

const (
	defaultBaseURL = "https://api.razorpay.com"
	ordersPath     = "/v1/orders"
	maxReceiptLen  = 40
)

var (
	errKeyIDRequired     = errors.New("razorpay key id is required")
	errKeySecretRequired = errors.New("razorpay key secret is required")
	errLoggerRequired    = errors.New("razorpay logger is required")
	errReceiptTooLong    = fmt.Errorf("razorpay receipt exceeds %d characters", maxReceiptLen)
)

// Client exposes the gateway primitives with centralized auth, logging, and
// error mapping. Amounts cross this boundary in minor units (paise).
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	logger     *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.RazorpayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		logger:     logg,
	}

	logg.Info(ctx, "razorpay client initialized")
	return c, nil
}

// OrderCreateParams describes a gateway order request.
type OrderCreateParams struct {
	AmountPaise int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway order returned by the create call.
type Order struct {
	ID          string `json:"id"`
	AmountPaise int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
}

type orderCreateRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type gatewayErrorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway so the buyer can pay it.
func (c *Client) CreateOrder(ctx context.Context, params OrderCreateParams) (*Order, error) {
	if params.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order amount must be positive")
	}
	if len(params.Receipt) > maxReceiptLen {
		return nil, pkgerrors.Wrap(errReceiptTooLong, pkgerrors.CodeValidation, "gateway receipt too long")
	}

	body, err := json.Marshal(orderCreateRequest{
		Amount:   params.AmountPaise,
		Currency: params.Currency,
		Receipt:  params.Receipt,
		Notes:    params.Notes,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "encoding gateway order request")
	}

	c.log(ctx, "request", "create_order", map[string]any{
		"amount_paise": params.AmountPaise,
		"currency":     params.Currency,
		"receipt":      params.Receipt,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "building gateway order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "create_order", map[string]any{"error": err.Error()})
		return nil, c.mapTransportError(err, "create order")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeUpstream, "reading gateway response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(ctx, "error", "create_order", map[string]any{
			"status": resp.StatusCode,
		})
		return nil, c.mapStatusError(resp.StatusCode, payload, "create order")
	}

	var order Order
	if err := json.Unmarshal(payload, &order); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeUpstream, "decoding gateway order")
	}
	if order.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "gateway returned an order without an id")
	}

	c.log(ctx, "response", "create_order", map[string]any{
		"gateway_order_id": order.ID,
		"status":           order.Status,
	})
	return &order, nil
}

// VerifyPaymentSignature checks the HMAC the gateway sends back after the
// buyer completes payment. The signed message is "<orderID>|<paymentID>" and
// the comparison is constant time.
func (c *Client) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	expected := SignPayload(c.keySecret, orderID+"|"+paymentID)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// SignPayload computes the hex HMAC-SHA256 the gateway uses for callbacks.
func SignPayload(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) mapTransportError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return pkgerrors.Wrap(err, pkgerrors.CodeUpstreamTimeout, fmt.Sprintf("gateway timeout during %s", op))
	}
	return pkgerrors.Wrap(err, pkgerrors.CodeUpstream, fmt.Sprintf("gateway unreachable during %s", op))
}

func (c *Client) mapStatusError(status int, payload []byte, op string) error {
	var envelope gatewayErrorEnvelope
	description := ""
	if err := json.Unmarshal(payload, &envelope); err == nil {
		description = envelope.Error.Description
	}
	msg := fmt.Sprintf("gateway rejected %s (status %d)", op, status)
	if description != "" {
		msg = fmt.Sprintf("%s: %s", msg, description)
	}
	if status == http.StatusBadRequest || status == http.StatusUnprocessableEntity {
		return pkgerrors.New(pkgerrors.CodeUpstream, msg)
	}
	if status == http.StatusGatewayTimeout || status == http.StatusRequestTimeout {
		return pkgerrors.New(pkgerrors.CodeUpstreamTimeout, msg)
	}
	return pkgerrors.New(pkgerrors.CodeUpstream, msg)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// log keeps gateway telemetry structured. Secrets and signatures are never
// included in the fields.
func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"gateway_op": op, "phase": phase}
	for k, v := range fields {
		merged[k] = v
	}
	logCtx := c.logger.WithFields(ctx, merged)
	if phase == "error" {
		c.logger.Warn(logCtx, "razorpay call failed")
		return
	}
	c.logger.Info(logCtx, "razorpay call")
}
