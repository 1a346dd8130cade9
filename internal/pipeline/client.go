package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// JobStatus mirrors the remote CI system's job states.
type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobSuccess  JobStatus = "success"
	JobFailed   JobStatus = "failed"
	JobCanceled JobStatus = "canceled"
	JobStuck    JobStatus = "stuck"
)

// Pipeline is one CI pipeline run as reported by the remote API.
type Pipeline struct {
	ID        int       `json:"id"`
	Status    string    `json:"status"`
	Ref       string    `json:"ref"`
	SHA       string    `json:"sha"`
	CreatedAt time.Time `json:"created_at"`
	Jobs      []Job     `json:"-"`
}

// Job is one unit of work within a pipeline. Runner is nil when no runner
// has picked the job up — the single most common root cause this tool
// diagnoses.
type Job struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Stage         string    `json:"stage"`
	Status        JobStatus `json:"status"`
	Runner        *Runner   `json:"runner"`
	FailureReason string    `json:"failure_reason"`
}

// Runner identifies the agent executing a job.
type Runner struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// StatusError is an HTTP-level rejection from the remote API. The endpoint
// answered, so unlike a transport error this is definitive.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string { return fmt.Sprintf("api error: %s", e.Status) }

// API is the slice of the remote CI system the inspector needs.
type API interface {
	ListPipelines(ctx context.Context, project string, limit int) ([]Pipeline, error)
	ListJobs(ctx context.Context, project string, pipelineID int) ([]Job, error)
}

// Client talks to a GitLab v4 style REST API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ API = (*Client)(nil)

// NewClient creates a client for the instance at baseURL.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ListPipelines returns up to limit pipelines for the project, newest first.
// The sort order is requested explicitly rather than trusting the API's
// default ordering.
func (c *Client) ListPipelines(ctx context.Context, project string, limit int) ([]Pipeline, error) {
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s/pipelines?per_page=%d&order_by=id&sort=desc",
		c.baseURL, url.PathEscape(project), limit)
	var pipelines []Pipeline
	if err := c.get(ctx, apiURL, &pipelines); err != nil {
		return nil, err
	}
	return pipelines, nil
}

// Project is the subset of project metadata the checks need.
type Project struct {
	ID   int    `json:"id"`
	Path string `json:"path_with_namespace"`
}

// ProjectRunner is a runner visible to a project.
type ProjectRunner struct {
	ID     int    `json:"id"`
	Active bool   `json:"active"`
	Online bool   `json:"online"`
	Status string `json:"status"`
}

// Version reports the instance version; it doubles as an auth check since
// the endpoint requires a valid token.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v struct {
		Version string `json:"version"`
	}
	if err := c.get(ctx, c.baseURL+"/api/v4/version", &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// GetProject fetches project metadata, confirming the project exists and the
// token can see it.
func (c *Client) GetProject(ctx context.Context, project string) (*Project, error) {
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s", c.baseURL, url.PathEscape(project))
	var p Project
	if err := c.get(ctx, apiURL, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListRunners returns the runners registered to a project.
func (c *Client) ListRunners(ctx context.Context, project string) ([]ProjectRunner, error) {
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s/runners", c.baseURL, url.PathEscape(project))
	var runners []ProjectRunner
	if err := c.get(ctx, apiURL, &runners); err != nil {
		return nil, err
	}
	return runners, nil
}

// ListJobs returns the jobs of one pipeline.
func (c *Client) ListJobs(ctx context.Context, project string, pipelineID int) ([]Job, error) {
	apiURL := fmt.Sprintf("%s/api/v4/projects/%s/pipelines/%d/jobs",
		c.baseURL, url.PathEscape(project), pipelineID)
	var jobs []Job
	if err := c.get(ctx, apiURL, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) get(ctx context.Context, apiURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("PRIVATE-TOKEN", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
