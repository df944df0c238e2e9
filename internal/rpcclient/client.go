// Package rpcclient calls the guest registry RPC surface over HTTP.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/guest-registry/internal/domain"
	"github.com/diagnosis/guest-registry/internal/http/response"
	"github.com/diagnosis/guest-registry/internal/service"
	"github.com/diagnosis/guest-registry/pkg/logger"
)

// Error is a failed RPC as reported by the registry.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("registry rpc %d %s: %s (%s)", e.Status, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("registry rpc %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap maps the wire code back onto the service error kinds.
func (e *Error) Unwrap() error {
	switch e.Code {
	case response.CodeInvalidInput:
		return service.ErrValidation
	case response.CodeNotFound:
		return service.ErrNotFound
	case response.CodeStoreError:
		return service.ErrStore
	case response.CodeAllocationFailed:
		return service.ErrAllocation
	}
	return nil
}

type Client struct {
	baseURL string
	prefix  string
	client  *http.Client
}

// New returns a client for the registry at baseURL, with RPC routes under /rpc.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  "/rpc",
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ service.RegistryService = (*Client)(nil)

func (c *Client) CheckIn(ctx context.Context, firstName, lastName string) (int, error) {
	var out domain.CheckInResponse
	err := c.call(ctx, "/checkInGuest", domain.CheckInRequest{FirstName: firstName, LastName: lastName}, &out)
	return out.RoomNumber, err
}

func (c *Client) GetGuestByLastNameAndRoom(ctx context.Context, lastName string, roomNumber int) (*domain.Guest, error) {
	var out domain.Guest
	if err := c.call(ctx, "/getGuestByLastNameAndRoom", domain.GuestKeyRequest{LastName: lastName, RoomNumber: roomNumber}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) IncrementWifiLoginCount(ctx context.Context, lastName string, roomNumber int) (bool, error) {
	var out domain.IncrementWifiLoginCountResponse
	err := c.call(ctx, "/incrementWifiLoginCount", domain.GuestKeyRequest{LastName: lastName, RoomNumber: roomNumber}, &out)
	return out.Success, err
}

func (c *Client) call(ctx context.Context, method string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + c.prefix + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Add request ID for tracing
	if requestID := logger.RequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	logger.DebugContext(ctx, "Calling registry", "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body response.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	return &Error{Status: resp.StatusCode, Code: body.Code, Message: body.Error, Details: body.Details}
}
