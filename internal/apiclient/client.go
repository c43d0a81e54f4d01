// Package apiclient is brain-runner's HTTP client against braind's own
// /api/v1, grounded on the teacher's ExternalTaskSource
// (internal/tasks/sources.go): a small struct wrapping *http.Client,
// JSON in, JSON out, every non-2xx response folded into a single typed
// error so the scheduler can classify retryable vs. fatal without
// parsing strings.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brainforge/braind/internal/apierr"
	"github.com/brainforge/braind/internal/types"
)

// DefaultTimeout is the per-request timeout spec.md §5 names for API calls.
const DefaultTimeout = 30 * time.Second

// Client is a thin, thread-safe wrapper over braind's HTTP surface.
// A single Client is shared across every per-project Scheduler Loop in
// "all" mode (spec.md §5).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a Client pointed at baseURL (e.g. "http://localhost:8177").
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/api/v1" + path
}

// do issues an HTTP request and decodes a JSON response into out (if
// non-nil), translating non-2xx responses into *apierr.Error by
// status code so callers never parse error strings.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierr.Internal("apiclient: marshal request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return apierr.Internal("apiclient: build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.KindBackendUnavailable, fmt.Sprintf("apiclient: %s %s", method, path), err)
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return apierr.IO("apiclient: read response body", readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return apierr.Internal("apiclient: decode response", err)
		}
		return nil
	}

	return translateStatus(resp.StatusCode, data)
}

// translateStatus maps a non-2xx HTTP response to the apierr taxonomy,
// the inverse of internal/httpapi/errors.go's Kind→status mapping.
func translateStatus(status int, body []byte) error {
	var wire struct {
		Message     string              `json:"message"`
		Details     []apierr.Detail     `json:"details,omitempty"`
		Suggestions []apierr.Suggestion `json:"suggestions,omitempty"`
	}
	_ = json.Unmarshal(body, &wire)
	if wire.Message == "" {
		wire.Message = string(body)
	}

	switch status {
	case http.StatusBadRequest:
		return &apierr.Error{Kind: apierr.KindValidation, Message: wire.Message, Details: wire.Details, Suggestions: wire.Suggestions}
	case http.StatusNotFound:
		return apierr.NotFound(wire.Message)
	case http.StatusConflict:
		return apierr.Conflict(wire.Message)
	case http.StatusServiceUnavailable:
		return apierr.BackendUnavailable(wire.Message)
	default:
		if status >= 400 && status < 500 {
			return &apierr.Error{Kind: apierr.KindValidation, Message: fmt.Sprintf("apiclient: unexpected status %d: %s", status, wire.Message)}
		}
		return apierr.New(apierr.KindInternal, fmt.Sprintf("apiclient: unexpected status %d: %s", status, wire.Message))
	}
}

// Retryable reports whether err should cause the scheduler loop to
// wait one poll interval and try again, rather than halt (spec.md §7:
// BackendUnavailable and network errors are retryable; 4xx from our
// own API is a bug).
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch apierr.KindOf(err) {
	case apierr.KindBackendUnavailable, apierr.KindIO, apierr.KindInternal:
		return true
	default:
		return false
	}
}

// HealthStatus mirrors the GET /health response shape.
type HealthStatus struct {
	Status           string `json:"status"`
	BackendAvailable bool   `json:"backendAvailable"`
	DBAvailable      bool   `json:"dbAvailable"`
	Timestamp        string `json:"timestamp"`
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClassifiedTasksResponse mirrors GET /tasks/{projectId}.
type ClassifiedTasksResponse struct {
	Tasks  []types.ClassifiedTask `json:"tasks"`
	Cycles [][]string             `json:"cycles"`
	Stats  json.RawMessage        `json:"stats"`
}

// GetClassifiedTasks calls GET /tasks/{projectId}.
func (c *Client) GetClassifiedTasks(ctx context.Context, projectID string) (*ClassifiedTasksResponse, error) {
	var out ClassifiedTasksResponse
	if err := c.do(ctx, http.MethodGet, "/tasks/"+projectID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects calls GET /tasks, the project-discovery endpoint "all"
// mode uses to learn which projects currently have a task/ directory.
func (c *Client) ListProjects(ctx context.Context) ([]string, error) {
	var out struct {
		Projects []string `json:"projects"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// ListReady calls GET /tasks/{projectId}/ready.
func (c *Client) ListReady(ctx context.Context, projectID string) ([]types.ClassifiedTask, error) {
	var out struct {
		Tasks []types.ClassifiedTask `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks/"+projectID+"/ready", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// InProgress fetches the current in_progress tasks for a project, used
// by the scheduler's resume-on-start reconciliation (spec.md §4.6
// step 2): it filters the full classified set client-side since there
// is no dedicated endpoint for "currently in_progress".
func (c *Client) InProgress(ctx context.Context, projectID string) ([]types.ClassifiedTask, error) {
	resp, err := c.GetClassifiedTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var out []types.ClassifiedTask
	for _, t := range resp.Tasks {
		if t.Status == types.StatusInProgress {
			out = append(out, t)
		}
	}
	return out, nil
}

// ClaimResponse mirrors the claim endpoint's success body.
type ClaimResponse struct {
	OK         bool   `json:"ok"`
	ClaimedBy  string `json:"claimedBy,omitempty"`
	ClaimedAt  string `json:"claimedAt,omitempty"`
	IsStale    bool   `json:"isStale,omitempty"`
}

// Claim calls POST /tasks/{projectId}/{taskId}/claim. A 409 response
// is not an error: Claim returns a ClaimResponse with OK=false so the
// scheduler can drop and try the next ready task. The 409 body is not
// decoded, so ClaimedBy, ClaimedAt and IsStale are empty in that case.
func (c *Client) Claim(ctx context.Context, projectID, taskID, runnerID string) (*ClaimResponse, error) {
	var out ClaimResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%s/%s/claim", projectID, taskID),
		map[string]string{"runnerId": runnerID}, &out)
	if err == nil {
		out.OK = true
		return &out, nil
	}
	if apierr.KindOf(err) == apierr.KindConflict {
		out.OK = false
		return &out, nil
	}
	return nil, err
}

// Release calls POST /tasks/{projectId}/{taskId}/release. Always 200
// per spec.md §6; idempotent.
func (c *Client) Release(ctx context.Context, projectID, taskID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/tasks/%s/%s/release", projectID, taskID), nil, nil)
}

// UpdateEntryRequest mirrors the PATCH /entries body.
type UpdateEntryRequest struct {
	Status          *string   `json:"status,omitempty"`
	Title           *string   `json:"title,omitempty"`
	Content         *string   `json:"content,omitempty"`
	Append          *string   `json:"append,omitempty"`
	Note            *string   `json:"note,omitempty"`
	DependsOn       *[]string `json:"depends_on,omitempty"`
	FeatureID       *string   `json:"feature_id,omitempty"`
	FeaturePriority *string   `json:"feature_priority,omitempty"`
	FeatureDependsOn *[]string `json:"feature_depends_on,omitempty"`
}

// UpdateEntry calls PATCH /entries/{idOrPath}.
func (c *Client) UpdateEntry(ctx context.Context, idOrPath string, req UpdateEntryRequest) (*types.Entry, error) {
	var out types.Entry
	if err := c.do(ctx, http.MethodPatch, "/entries/"+idOrPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetEntry calls GET /entries/{idOrPath}.
func (c *Client) GetEntry(ctx context.Context, idOrPath string) (*types.Entry, error) {
	var out types.Entry
	if err := c.do(ctx, http.MethodGet, "/entries/"+idOrPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
