// Package api implements the typed client for the relay gateway admin API.
//
// Every call is a single JSON request/response round trip: no automatic
// retries, no partial responses. Failures are classified into the uniform
// *Error taxonomy so the console can surface them as operator notices.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"relayctl/internal/logging"
	"relayctl/internal/session"
	"relayctl/internal/types"
)

// DefaultTimeout bounds a single gateway round trip.
const DefaultTimeout = 15 * time.Second

// Client issues authenticated calls against the relay gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *session.Session
	log        *logging.Logger
}

// New creates a gateway client. The session is consulted on every request;
// requests made while logged out simply carry no Authorization header and
// are left to the gateway to reject.
func New(baseURL string, timeout time.Duration, sess *session.Session) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		session:    sess,
		log:        logging.Get(logging.CategoryAPI),
	}
}

// request performs one round trip. body and out may be nil; a nil out
// discards the response body (the command endpoints answer 2xx with an
// empty body).
func (c *Client) request(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindLocalValidation, Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindLocalValidation, Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("%s: transport failure: %v", op, err)
		return &Error{Kind: KindTransport, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("%s -> %d", op, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		return &Error{Kind: KindUnauthorized, Op: op, Status: resp.StatusCode}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Kind: KindServerRejected, Op: op, Status: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindServerRejected, Op: op, Status: resp.StatusCode,
			Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// Login authenticates the operator and returns the credential token.
// The caller decides whether to store it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", &Error{Kind: KindLocalValidation, Op: "POST /admin/login",
			Err: fmt.Errorf("username and password are required")}
	}
	var resp struct {
		Token string `json:"token"`
	}
	req := map[string]string{"username": username, "password": password}
	if err := c.request(ctx, http.MethodPost, "/admin/login", req, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

// ListDevices fetches the full device set in one call. The gateway does
// not paginate or filter this endpoint.
func (c *Client) ListDevices(ctx context.Context) ([]types.Device, error) {
	var resp struct {
		Count   int            `json:"count"`
		Devices []types.Device `json:"devices"`
	}
	if err := c.request(ctx, http.MethodGet, "/devices", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// DeviceStatus probes a single device.
func (c *Client) DeviceStatus(ctx context.Context, phone string) (types.Device, error) {
	if phone == "" {
		return types.Device{}, &Error{Kind: KindLocalValidation, Op: "POST /devices/status",
			Err: fmt.Errorf("phone is required")}
	}
	var dev types.Device
	req := map[string]string{"phone": phone}
	if err := c.request(ctx, http.MethodPost, "/devices/status", req, &dev); err != nil {
		return types.Device{}, err
	}
	return dev, nil
}

// MessageQuery is the canonical query contract: phone-scoped, optional slot
// filter, required limit.
type MessageQuery struct {
	Phone string
	Slot  *int // nil queries both slots
	Limit int
}

// QueryMessages fetches up to q.Limit messages for a device. Order is
// server-defined; the client does not re-sort.
func (c *Client) QueryMessages(ctx context.Context, q MessageQuery) ([]types.Message, error) {
	op := "POST /sms/query"
	if q.Phone == "" {
		return nil, &Error{Kind: KindLocalValidation, Op: op, Err: fmt.Errorf("phone is required")}
	}
	if q.Limit <= 0 {
		return nil, &Error{Kind: KindLocalValidation, Op: op, Err: fmt.Errorf("limit must be positive")}
	}
	body := map[string]interface{}{"phone": q.Phone, "limit": q.Limit}
	if q.Slot != nil {
		body["slot"] = *q.Slot
	}
	var resp struct {
		Count int             `json:"count"`
		Data  []types.Message `json:"data"`
	}
	if err := c.request(ctx, http.MethodPost, "/sms/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SendMessage dispatches a send instruction to a device. A nil return only
// confirms the gateway accepted the instruction for delivery, not that the
// device sent the SMS.
func (c *Client) SendMessage(ctx context.Context, cmd types.SendCommand) error {
	if err := cmd.Validate(); err != nil {
		return &Error{Kind: KindLocalValidation, Op: "POST /sms/send", Err: err}
	}
	return c.request(ctx, http.MethodPost, "/sms/send", cmd, nil)
}

// DeleteMessages deletes all stored messages for one slot of a device.
func (c *Client) DeleteMessages(ctx context.Context, phone string, slot int) error {
	op := "POST /sms/delete"
	if phone == "" {
		return &Error{Kind: KindLocalValidation, Op: op, Err: fmt.Errorf("phone is required")}
	}
	if slot < 0 || slot >= types.MaxSlots {
		return &Error{Kind: KindLocalValidation, Op: op, Err: fmt.Errorf("slot must be 0 or 1")}
	}
	body := map[string]interface{}{"phone": phone, "slot": slot}
	return c.request(ctx, http.MethodPost, "/sms/delete", body, nil)
}

// AppVersion fetches the fleet app version record.
func (c *Client) AppVersion(ctx context.Context) (types.VersionInfo, error) {
	var v types.VersionInfo
	if err := c.request(ctx, http.MethodGet, "/app/version", nil, &v); err != nil {
		return types.VersionInfo{}, err
	}
	return v, nil
}

// SetAppVersion updates the fleet app version record.
func (c *Client) SetAppVersion(ctx context.Context, v types.VersionInfo) error {
	if v.VersionCode < 1 {
		return &Error{Kind: KindLocalValidation, Op: "POST /app/version",
			Err: fmt.Errorf("versionCode must be at least 1")}
	}
	return c.request(ctx, http.MethodPost, "/app/version", v, nil)
}
