package cartapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ikkim/storefront-bff/pkg/logger"
)

const maxResponseBytes = 1 << 20

// CredentialSource answers "is a usable credential present" before every
// authenticated call.
type CredentialSource interface {
	Credential() (token string, ok bool)
}

// Client talks to the commerce backend's cart, order and catalog endpoints.
type Client struct {
	config      Config
	httpClient  *http.Client
	credentials CredentialSource
}

// NewClient creates a client with its own HTTP transport.
func NewClient(config Config, credentials CredentialSource) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		config:      config,
		httpClient:  &http.Client{Timeout: timeout},
		credentials: credentials,
	}, nil
}

// WithCredentials returns a client sharing this one's transport but
// authenticating with a different credential source.
func (c *Client) WithCredentials(credentials CredentialSource) *Client {
	return &Client{
		config:      c.config,
		httpClient:  c.httpClient,
		credentials: credentials,
	}
}

// FetchCart reads the cart of record.
func (c *Client) FetchCart(ctx context.Context) Result[Cart] {
	var resp CartResponse
	if f := c.doAuthorized(ctx, http.MethodGet, "/cart", nil, &resp); f != nil {
		return failure[Cart](f)
	}
	return success(resp.toCart())
}

// AddItem adds quantity of sku. The backend merges repeated adds of the same
// variant into one row.
func (c *Client) AddItem(ctx context.Context, sku string, quantity int, size, color string) Result[struct{}] {
	if sku == "" {
		return failure[struct{}](&callFailure{kind: KindValidation, message: "sku is required"})
	}
	if quantity < 1 {
		return failure[struct{}](&callFailure{kind: KindValidation, message: "quantity must be at least 1"})
	}

	req := addItemRequest{
		ProductSKU:    sku,
		Quantity:      quantity,
		SelectedSize:  size,
		SelectedColor: color,
	}
	if f := c.doAuthorized(ctx, http.MethodPost, "/cart/items", req, nil); f != nil {
		return failure[struct{}](f)
	}
	return success(struct{}{})
}

// RemoveItem deletes one cart row.
func (c *Client) RemoveItem(ctx context.Context, itemID string) Result[struct{}] {
	if itemID == "" {
		return failure[struct{}](&callFailure{kind: KindValidation, message: "item id is required"})
	}
	if f := c.doAuthorized(ctx, http.MethodDelete, "/cart/items/"+url.PathEscape(itemID), nil, nil); f != nil {
		return failure[struct{}](f)
	}
	return success(struct{}{})
}

// UpdateQuantity sets the quantity of one cart row. Quantities below one are
// rejected without a request.
func (c *Client) UpdateQuantity(ctx context.Context, itemID string, quantity int) Result[struct{}] {
	if quantity < 1 {
		return failure[struct{}](&callFailure{kind: KindValidation, message: "quantity must be at least 1"})
	}
	if itemID == "" {
		return failure[struct{}](&callFailure{kind: KindValidation, message: "item id is required"})
	}
	req := updateQuantityRequest{Quantity: quantity}
	if f := c.doAuthorized(ctx, http.MethodPut, "/cart/items/"+url.PathEscape(itemID), req, nil); f != nil {
		return failure[struct{}](f)
	}
	return success(struct{}{})
}

// ClearCart empties the cart of record.
func (c *Client) ClearCart(ctx context.Context) Result[struct{}] {
	if f := c.doAuthorized(ctx, http.MethodDelete, "/cart", nil, nil); f != nil {
		return failure[struct{}](f)
	}
	return success(struct{}{})
}

func (c *Client) doAuthorized(ctx context.Context, method, path string, payload, out interface{}) *callFailure {
	token, ok := "", false
	if c.credentials != nil {
		token, ok = c.credentials.Credential()
	}
	if !ok || token == "" {
		logger.Debug("Skipping backend call without credential", map[string]interface{}{
			"method": method,
			"path":   path,
		})
		return &callFailure{kind: KindUnauthorized, message: "login required"}
	}
	return c.do(ctx, method, path, token, payload, out)
}

// do performs one request. token may be empty for public endpoints.
func (c *Client) do(ctx context.Context, method, path, token string, payload, out interface{}) *callFailure {
	var body io.Reader
	if payload != nil {
		reqBody, err := json.Marshal(payload)
		if err != nil {
			return &callFailure{kind: KindUnknown, message: fmt.Sprintf("failed to marshal request body: %v", err)}
		}
		body = bytes.NewReader(reqBody)
	}

	endpoint := c.config.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &callFailure{kind: KindUnknown, message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("Backend request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return &callFailure{kind: KindNetwork, message: networkMessage(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &callFailure{kind: KindNetwork, message: networkMessage(err), status: resp.StatusCode}
	}

	logger.Debug("Backend request completed", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": resp.StatusCode,
		"latency_ms":  time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return &callFailure{kind: KindUnknown, message: "empty response body", status: resp.StatusCode}
		}
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &callFailure{
			kind:    KindUnknown,
			message: fmt.Sprintf("failed to decode response: %v", err),
			status:  resp.StatusCode,
		}
	}
	return nil
}

func classifyStatus(status int, raw []byte) *callFailure {
	var errResp errorResponse
	message := ""
	if err := json.Unmarshal(raw, &errResp); err == nil {
		message = errResp.text()
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &callFailure{kind: KindUnauthorized, message: message, status: status}
	default:
		return &callFailure{kind: KindServer, message: message, status: status}
	}
}

func networkMessage(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request to the cart service timed out"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "request to the cart service timed out"
	}
	return "could not reach the cart service"
}
