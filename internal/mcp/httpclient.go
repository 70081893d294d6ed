package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/claude/topset/internal/autoreg"
	"github.com/claude/topset/internal/cycle"
	"github.com/claude/topset/internal/models"
)

// HTTPClient implements DataSource by calling the topset REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTPClient targeting the given base URL. The API
// key may be empty when the server sits on a tailnet.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, userID, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if userID != "" {
		req.Header.Set("X-User-Login", userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func exercisePath(exerciseID, leaf string) string {
	return "/api/v1/exercises/" + url.PathEscape(exerciseID) + "/" + leaf
}

func (c *HTTPClient) ProgramDays(ctx context.Context) ([]models.ProgramDay, error) {
	var days []models.ProgramDay
	err := c.get(ctx, "", "/api/v1/program", nil, &days)
	return days, err
}

func (c *HTTPClient) TopSetHistory(ctx context.Context, userID, exerciseID string) ([]autoreg.Entry, error) {
	var h []autoreg.Entry
	err := c.get(ctx, userID, exercisePath(exerciseID, "history"), nil, &h)
	return h, err
}

func (c *HTTPClient) CheckRegression(ctx context.Context, userID, exerciseID string) (autoreg.Suggestion, error) {
	var s autoreg.Suggestion
	err := c.get(ctx, userID, exercisePath(exerciseID, "regression"), nil, &s)
	return s, err
}

func (c *HTTPClient) Progress(ctx context.Context, userID, exerciseID string) (autoreg.ExerciseProgress, error) {
	var p autoreg.ExerciseProgress
	err := c.get(ctx, userID, exercisePath(exerciseID, "progress"), nil, &p)
	return p, err
}

func (c *HTTPClient) Tracked(ctx context.Context, userID string) ([]autoreg.TrackedExercise, error) {
	var t []autoreg.TrackedExercise
	err := c.get(ctx, userID, "/api/v1/exercises", nil, &t)
	return t, err
}

func (c *HTTPClient) CycleState(ctx context.Context, userID string) (cycle.Status, error) {
	var s cycle.Status
	err := c.get(ctx, userID, "/api/v1/cycle", nil, &s)
	return s, err
}

func (c *HTTPClient) RecentSessions(ctx context.Context, userID string, limit int) ([]models.WorkoutSession, error) {
	params := url.Values{}
	params.Set("status", "completed")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var sessions []models.WorkoutSession
	if err := c.get(ctx, userID, "/api/v1/sessions", params, &sessions); err != nil {
		return nil, err
	}
	// The API lists oldest first.
	slices.Reverse(sessions)
	return sessions, nil
}
