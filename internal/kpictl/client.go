package kpictl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/kpiboard/internal/domain/ranking"
	"github.com/okian/kpiboard/internal/domain/scoring"
	"github.com/okian/kpiboard/internal/domain/types"
)

// Client talks to the ranking service over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client for cfg.BaseURL.
func NewClient(cfg Config) *Client {
	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Leaderboard fetches up to limit entries of the scoped leaderboard.
// A limit of zero lets the server pick its maximum.
func (c *Client) Leaderboard(ctx context.Context, limit int, scope ranking.Scope) ([]types.Entry, error) {
	q := scopeQuery(scope)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var entries []types.Entry
	if err := c.do(ctx, http.MethodGet, "/leaderboard", q, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Rank fetches a single employee's position within scope.
func (c *Client) Rank(ctx context.Context, employeeID string, scope ranking.Scope) (types.Entry, error) {
	var entry types.Entry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(employeeID), scopeQuery(scope), nil, &entry)
	return entry, err
}

// Score asks the server to score in.
func (c *Client) Score(ctx context.Context, in scoring.Input) (types.Breakdown, error) {
	body := map[string]float64{
		"sales_actual":      in.SalesActual,
		"sales_target":      in.SalesTarget,
		"commission_actual": in.CommissionActual,
		"commission_target": in.CommissionTarget,
		"attendance_actual": in.AttendanceActual,
		"attendance_target": in.AttendanceTarget,
	}
	var out types.Breakdown
	err := c.do(ctx, http.MethodPost, "/score", nil, body, &out)
	return out, err
}

// Refresh requests a snapshot rebuild.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/refresh", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Code == "" {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func scopeQuery(scope ranking.Scope) url.Values {
	q := url.Values{}
	if scope.GroupID != "" {
		q.Set("group", scope.GroupID)
	}
	if scope.Role != "" {
		q.Set("role", scope.Role)
	}
	return q
}
