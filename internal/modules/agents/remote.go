package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrServiceNotConfigured is returned by remote factories when no agent
// service URL was configured
var ErrServiceNotConfigured = errors.New("agent service URL not configured")

// NewHTTPDirectory builds a directory whose capabilities call an external
// agent service at {baseURL}/agents/{id}/analyze. With an empty baseURL every
// factory fails, so all agents report AGENT_CONSTRUCTION_FAILED. A nil client
// means a client without its own timeout.
func NewHTTPDirectory(baseURL string, client *http.Client, ids []string) Directory {
	if client == nil {
		// Calls are bounded by the invoker's context
		client = &http.Client{}
	}
	base := strings.TrimRight(baseURL, "/")

	dir := make(Directory, len(ids))
	for _, id := range ids {
		agentID := id
		dir[agentID] = func() (Capability, error) {
			if base == "" {
				return nil, ErrServiceNotConfigured
			}
			return &remoteCapability{
				agentID:  agentID,
				endpoint: base + "/agents/" + url.PathEscape(agentID) + "/analyze",
				client:   client,
			}, nil
		}
	}
	return dir
}

type remoteCapability struct {
	agentID  string
	endpoint string
	client   *http.Client
}

type remoteRequest struct {
	Ticker string `json:"ticker"`
	Date   string `json:"date"`
}

// Analyze posts the ticker and date and adapts the JSON object in the reply
func (c *remoteCapability) Analyze(ctx context.Context, ticker, date string) (RawResult, error) {
	body, err := json.Marshal(remoteRequest{Ticker: ticker, Date: date})
	if err != nil {
		return RawResult{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return RawResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return RawResult{}, fmt.Errorf("failed to call agent service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return RawResult{}, fmt.Errorf("agent service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return RawResult{}, fmt.Errorf("failed to decode agent response: %w", err)
	}

	return ResultFromMap(payload), nil
}
