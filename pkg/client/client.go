// Package client talks to a device over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/robotalks/rrr.go/pkg/api"
)

// DefaultTimeout bounds one request.
const DefaultTimeout = 5 * time.Second

// ErrCommandFailed is returned when the device rejected a command.
type ErrCommandFailed struct {
	Status int
	Result api.CommandResult
}

// Error implements error.
func (e *ErrCommandFailed) Error() string {
	return fmt.Sprintf("%s (%d)", e.Result.Error, e.Status)
}

// Client is the HTTP client of a device.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a Client for the device at baseURL, e.g. http://rrr.local.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP:    &http.Client{Timeout: DefaultTimeout},
	}
}

// State fetches the state snapshot.
func (c *Client) State(ctx context.Context) (st api.State, err error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/state", nil)
	if err != nil {
		return
	}
	resp, err := c.HTTP.Do(req.WithContext(ctx))
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("GET /state: %s", resp.Status)
		return
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return
}

// Do sends a command. A command rejected by the device returns
// *ErrCommandFailed along with its result.
func (c *Client) Do(ctx context.Context, cmd api.Command) (api.CommandResult, error) {
	var res api.CommandResult
	body, err := api.EncodeCommand(cmd)
	if err != nil {
		return res, err
	}
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/command", bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req.WithContext(ctx))
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	if err = json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, fmt.Errorf("POST /command: %s: %v", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK || !res.OK() {
		return res, &ErrCommandFailed{Status: resp.StatusCode, Result: res}
	}
	return res, nil
}

// Watch streams state snapshots to fn until ctx is done or the
// connection fails.
func (c *Client) Watch(ctx context.Context, fn func(api.State)) error {
	url := "ws" + strings.TrimPrefix(c.BaseURL, "http") + "/state/stream"
	conn, err := websocket.Dial(url, "", c.BaseURL)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	for {
		var st api.State
		if err := websocket.JSON.Receive(conn, &st); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		fn(st)
	}
}
