// Package planner talks to the remote path planning service. The client sends
// one request per plan and never retries.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rrtviz/rrtviz/backend-go/internal/document"
)

var (
	ErrPlanningFailed = errors.New("planning failed")
	ErrRemote         = errors.New("planner unavailable")
)

// maxResponseSize bounds the decoded planner response.
const maxResponseSize = 64 << 20

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

// ValidateRequest checks the parts of a request the planner would reject.
func ValidateRequest(req document.PlanRequest) error {
	if _, err := document.ParseAlgorithm(string(req.Algorithm)); err != nil {
		return err
	}
	if err := req.Parameters.Validate(); err != nil {
		return err
	}
	if len(req.Start) != 2 || len(req.Goal) != 2 {
		return fmt.Errorf("%w: start and goal need 2 coordinates", document.ErrInvalidParameter)
	}
	for i, o := range req.Obstacles {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("obstacle %d: %w", i, err)
		}
	}
	return nil
}

// Plan posts req to the planner. A response with success=false yields
// ErrPlanningFailed carrying the remote message; transport failures and
// non-2xx statuses yield ErrRemote.
func (c *Client) Plan(ctx context.Context, req document.PlanRequest) (*document.PlanResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal plan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build plan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemote, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrRemote, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRemote, resp.StatusCode, remoteMessage(data))
	}

	var out document.PlanResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrRemote, err)
	}

	slog.Debug("planner responded",
		"algorithm", req.Algorithm,
		"success", out.Success,
		"vertices", len(out.Vertices),
		"elapsed", time.Since(start),
	)

	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = "no path found"
		}
		return &out, fmt.Errorf("%w: %s", ErrPlanningFailed, msg)
	}
	return &out, nil
}

// remoteMessage extracts {"error": "..."} from an error body, falling back to
// the raw text.
func remoteMessage(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if len(data) > 200 {
		data = data[:200]
	}
	return string(bytes.TrimSpace(data))
}
