// Package client provides the API client for interacting with the
// dataplane API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/briggon/dataplane/internal/api/v1/routes"
	"github.com/briggon/dataplane/internal/types"
)

// DefaultTimeout is the default timeout for API requests
const DefaultTimeout = 30 * time.Second

// Client is the interface for the API client
type Client interface {
	// HealthCheck returns the liveness probe response.
	HealthCheck(ctx context.Context) (types.HealthResponse, error)

	// SubmitJob submits a payload for asynchronous processing.
	SubmitJob(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error)

	// GetJob retrieves the status of a previously submitted job.
	GetJob(ctx context.Context, jobID string) (types.JobStatusResponse, error)
}

var _ Client = &APIClient{}

// Options contains configuration options for the API client
type Options struct {
	// BaseURL is the base URL of the API
	BaseURL string

	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: routes.DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	baseURL string
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *Options) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	if _, err := url.Parse(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	return &APIClient{
		baseURL: opts.BaseURL,
		timeout: opts.Timeout,
	}, nil
}

// HealthCheck returns the liveness probe response.
func (c *APIClient) HealthCheck(ctx context.Context) (types.HealthResponse, error) {
	var out types.HealthResponse
	err := c.executeRequest(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

// SubmitJob submits a payload for asynchronous processing.
func (c *APIClient) SubmitJob(ctx context.Context, req types.SubmitJobRequest) (types.SubmitJobResponse, error) {
	var out types.SubmitJobResponse
	err := c.executeRequest(ctx, http.MethodPost, routes.SubmitJobPath, req, &out)
	return out, err
}

// GetJob retrieves the status of a previously submitted job.
func (c *APIClient) GetJob(ctx context.Context, jobID string) (types.JobStatusResponse, error) {
	var out types.JobStatusResponse
	err := c.executeRequest(ctx, http.MethodGet, routes.JobURL(jobID), nil, &out)
	return out, err
}

// createAgent creates a new Fiber Agent for the given method and endpoint
func (c *APIClient) createAgent(ctx context.Context, method, endpoint string, body interface{}) (*fiber.Agent, error) {
	fullURL := c.baseURL + endpoint

	var agent *fiber.Agent
	switch method {
	case http.MethodGet:
		agent = fiber.Get(fullURL)
	case http.MethodPost:
		agent = fiber.Post(fullURL)
	default:
		return nil, fmt.Errorf("unsupported HTTP method: %s", method)
	}

	// Set timeout from context or client default
	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}

	agent.Set("Content-Type", "application/json")
	agent.Set("Accept", "application/json")

	if body != nil {
		agent.JSON(body)
	}

	return agent, nil
}

// doRequest sends the HTTP request and processes the response
func (c *APIClient) doRequest(agent *fiber.Agent, v interface{}) error {
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("error sending request: %w", errs[0])
	}

	if statusCode < 200 || statusCode >= 300 {
		// Error responses carry the SlugResponse envelope.
		var slugResponse types.SlugResponse
		if err := json.Unmarshal(body, &slugResponse); err == nil && slugResponse.Error != "" {
			return &fiber.Error{
				Code:    statusCode,
				Message: slugResponse.Error,
			}
		}
		return &fiber.Error{
			Code:    statusCode,
			Message: string(body),
		}
	}

	if v != nil && len(body) > 0 {
		if err := json.Unmarshal(body, v); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// executeRequest creates an agent, sends the request, and processes the response
func (c *APIClient) executeRequest(ctx context.Context, method, endpoint string, body, response interface{}) error {
	agent, err := c.createAgent(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	return c.doRequest(agent, response)
}
