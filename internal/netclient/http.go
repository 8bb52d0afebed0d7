package netclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/firefly-engineering/sandnet-ctl/internal/errors"
)

// HTTPClient implements Client over the validator's JSON control surface.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTP creates a control client for a validator listening on the given
// local control port. Request deadlines come from the caller's context:
// the health probe, the clock budget, and status reads each carry their
// own, so the client itself imposes none.
func NewHTTP(controlPort int) *HTTPClient {
	return &HTTPClient{
		baseURL: fmt.Sprintf("http://127.0.0.1:%d", controlPort),
		client:  &http.Client{},
	}
}

// DialHTTP is the Dialer for real validators.
func DialHTTP(controlPort int) Client {
	return NewHTTP(controlPort)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotImplemented:
		return errors.ErrUnsupported
	case resp.StatusCode >= 400:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("validator returned %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type slotResponse struct {
	Slot uint64 `json:"slot"`
}

// Health implements Client.
func (c *HTTPClient) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v1/health", nil, nil)
}

// Slot implements Client.
func (c *HTTPClient) Slot(ctx context.Context) (uint64, error) {
	var resp slotResponse
	if err := c.do(ctx, http.MethodGet, "/v1/slot", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Slot, nil
}

// AdvanceSlot implements Client.
func (c *HTTPClient) AdvanceSlot(ctx context.Context, delta uint64) (uint64, error) {
	var resp slotResponse
	req := map[string]uint64{"delta": delta}
	if err := c.do(ctx, http.MethodPost, "/v1/slot/advance", req, &resp); err != nil {
		return 0, err
	}
	return resp.Slot, nil
}

// WarpSlot implements Client.
func (c *HTTPClient) WarpSlot(ctx context.Context, target uint64) (uint64, error) {
	var resp slotResponse
	req := map[string]uint64{"target": target}
	if err := c.do(ctx, http.MethodPost, "/v1/slot/warp", req, &resp); err != nil {
		return 0, err
	}
	return resp.Slot, nil
}

// PauseClock implements Client.
func (c *HTTPClient) PauseClock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/clock/pause", nil, nil)
}

// ResumeClock implements Client.
func (c *HTTPClient) ResumeClock(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/clock/resume", nil, nil)
}

// Accounts implements Client.
func (c *HTTPClient) Accounts(ctx context.Context) ([]Account, error) {
	var resp struct {
		Accounts []Account `json:"accounts"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// Programs implements Client.
func (c *HTTPClient) Programs(ctx context.Context) ([]Program, error) {
	var resp struct {
		Programs []Program `json:"programs"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/programs", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Programs, nil
}

// PutAccounts implements Client.
func (c *HTTPClient) PutAccounts(ctx context.Context, accounts []Account) error {
	req := map[string][]Account{"accounts": accounts}
	return c.do(ctx, http.MethodPut, "/v1/accounts", req, nil)
}

// PutPrograms implements Client.
func (c *HTTPClient) PutPrograms(ctx context.Context, programs []Program) error {
	req := map[string][]Program{"programs": programs}
	return c.do(ctx, http.MethodPut, "/v1/programs", req, nil)
}

// SetClock implements Client.
func (c *HTTPClient) SetClock(ctx context.Context, slot uint64) error {
	req := map[string]uint64{"slot": slot}
	return c.do(ctx, http.MethodPut, "/v1/slot", req, nil)
}
