package giftai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/craftloom/craftloom-backend/pkg/config"
	pkgerrors "github.com/craftloom/craftloom-backend/pkg/errors"
	"github.com/craftloom/craftloom-backend/pkg/logger"
)

const (
	bundlePath = "/generate-bundle"
	searchPath = "/search"
)

var (
	errBaseURLRequired = errors.New("gift ai base url is required")
	errLoggerRequired  = errors.New("gift ai logger is required")
)

// Client talks to the gift recommendation model service. The service is a
// separate deployment with long inference times, so every call carries the
// configured timeout.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient validates the configuration and returns a gift AI client.
func NewClient(cfg config.GiftAIConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logg,
	}, nil
}

// BundleParams describes an occasion the model should shop for.
type BundleParams struct {
	Occasion  string
	Budget    float64
	Recipient string
	Notes     string
	ImageName string
	Image     io.Reader
}

// BundleCandidate is one suggested item inside a generated bundle. The
// model mostly returns loose titles; CatalogID shows up only when the model
// recognized a known listing, and even then it may be stale or malformed.
// Candidates go through enrichment before buyers see them.
type BundleCandidate struct {
	CatalogID string   `json:"catalog_id,omitempty"`
	Title     string   `json:"title"`
	Reason    string   `json:"reason,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	PriceHint *float64 `json:"price_hint,omitempty"`
}

// ModelBundle is one themed bundle of candidates. A single request usually
// yields several alternatives.
type ModelBundle struct {
	Title string            `json:"title"`
	Items []BundleCandidate `json:"items"`
}

// BundleResult is the raw model output for one request.
type BundleResult struct {
	BundleID string        `json:"bundle_id,omitempty"`
	Occasion string        `json:"occasion"`
	Bundles  []ModelBundle `json:"bundles"`
}

// SearchResult is a loose item suggestion from the semantic search endpoint.
type SearchResult struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

type upstreamEnvelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// GenerateBundle asks the model for a gift bundle. The optional image is
// streamed as multipart form data alongside the occasion fields.
func (c *Client) GenerateBundle(ctx context.Context, params BundleParams) (*BundleResult, error) {
	if strings.TrimSpace(params.Occasion) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "occasion is required")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"occasion":  params.Occasion,
		"budget":    strconv.FormatFloat(params.Budget, 'f', 2, 64),
		"recipient": params.Recipient,
		"notes":     params.Notes,
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "encoding bundle request")
		}
	}
	if params.Image != nil {
		name := params.ImageName
		if name == "" {
			name = "inspiration.jpg"
		}
		part, err := writer.CreateFormFile("image", name)
		if err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "encoding bundle image")
		}
		if _, err := io.Copy(part, params.Image); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "copying bundle image")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "finalizing bundle request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+bundlePath, body)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "building bundle request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result BundleResult
	if err := c.do(ctx, req, "generate_bundle", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search runs a semantic query against the model's item index.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is required")
	}
	if limit <= 0 {
		limit = 10
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+searchPath+"?"+values.Encode(), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "building search request")
	}

	var results []SearchResult
	if err := c.do(ctx, req, "search", &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return pkgerrors.Wrap(err, pkgerrors.CodeUpstreamTimeout, fmt.Sprintf("gift ai timeout during %s", op))
		}
		return pkgerrors.Wrap(err, pkgerrors.CodeUpstream, fmt.Sprintf("gift ai unreachable during %s", op))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeUpstream, "reading gift ai response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log(ctx, "error", op, map[string]any{"status": resp.StatusCode})
		return pkgerrors.New(pkgerrors.CodeUpstream, fmt.Sprintf("gift ai rejected %s (status %d)", op, resp.StatusCode))
	}

	var envelope upstreamEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.CodeUpstream, "decoding gift ai envelope")
	}
	if !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = "gift ai reported failure without a reason"
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, msg)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeUpstream, "decoding gift ai payload")
		}
	}

	c.log(ctx, "response", op, map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"giftai_op": op, "phase": phase}
	for k, v := range fields {
		merged[k] = v
	}
	logCtx := c.logger.WithFields(ctx, merged)
	if phase == "error" {
		c.logger.Warn(logCtx, "gift ai call failed")
		return
	}
	c.logger.Info(logCtx, "gift ai call")
}
