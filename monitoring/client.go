package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sarchlab/procsim/process"
	"github.com/sarchlab/procsim/sim"
)

// A Client talks to the monitor of a simulation running in another process.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client of the monitor served at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
}

// Status is the time and pause state of a simulation.
type Status struct {
	Now    sim.VTime `json:"now"`
	Paused bool      `json:"paused"`
}

// Now returns the status of the simulation.
func (c *Client) Now(ctx context.Context) (Status, error) {
	var s Status
	err := c.get(ctx, "/api/now", &s)

	return s, err
}

// Pause pauses the simulation.
func (c *Client) Pause(ctx context.Context) (Status, error) {
	var s Status
	err := c.get(ctx, "/api/pause", &s)

	return s, err
}

// Continue resumes the simulation.
func (c *Client) Continue(ctx context.Context) (Status, error) {
	var s Status
	err := c.get(ctx, "/api/continue", &s)

	return s, err
}

// Progress returns the number of finished and submitted processes.
func (c *Client) Progress(ctx context.Context) (ProgressRsp, error) {
	var p ProgressRsp
	err := c.get(ctx, "/api/progress", &p)

	return p, err
}

// ReadyQueue returns the waiting processes in selection order.
func (c *Client) ReadyQueue(ctx context.Context) ([]process.Process, error) {
	var ps []process.Process
	err := c.get(ctx, "/api/ready_queue", &ps)

	return ps, err
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path, nil)
	if err != nil {
		return err
	}

	rsp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(rsp.Body)
		return fmt.Errorf("requesting %s: %s: %s",
			path, rsp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(rsp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	return nil
}
