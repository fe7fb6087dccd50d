package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"

	"github.com/briggon/dataplane/config"
	"github.com/briggon/dataplane/internal/api/v1/handlers"
	"github.com/briggon/dataplane/internal/api/v1/services"
	"github.com/briggon/dataplane/internal/app"
	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/objectstore"
	"github.com/briggon/dataplane/internal/queue"
	queuememory "github.com/briggon/dataplane/internal/queue/memory"
	storememory "github.com/briggon/dataplane/internal/store/memory"
	"github.com/briggon/dataplane/internal/types"
)

type JobHandlerTestSuite struct {
	suite.Suite
	App     *fiber.App
	Records *storememory.Store
	Queue   *queuememory.Queue
}

func (s *JobHandlerTestSuite) SetupTest() {
	s.Records = storememory.New()
	s.Queue = queuememory.New(16, 10*time.Millisecond)

	cfg := &config.Settings{
		AppName:         "dataplane-test",
		AppVersion:      "0.0.1",
		CORSOrigins:     []string{"*"},
		MaxPayloadBytes: 1 << 16,
	}

	jobService := services.NewJobService(s.Records, s.Queue, time.Second)
	jobHandler := handlers.NewJobHandler(jobService, cfg.MaxPayloadBytes)
	healthHandler := handlers.NewHealthHandler(cfg.AppName, cfg.AppVersion,
		s.Records, s.Queue, objectstore.NewMemoryStore())

	s.App = app.NewApp(cfg, jobHandler, healthHandler)
}

func TestJobHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(JobHandlerTestSuite))
}

func (s *JobHandlerTestSuite) submit(body string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	return resp
}

func (s *JobHandlerTestSuite) decode(resp *http.Response, v interface{}) {
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(body, v))
}

func (s *JobHandlerTestSuite) TestSubmitReturnsQueuedJob() {
	resp := s.submit(`{"data": {"test": "value"}, "priority": "high"}`)
	s.Equal(fiber.StatusCreated, resp.StatusCode)

	var out types.SubmitJobResponse
	s.decode(resp, &out)
	s.NotEmpty(out.JobID)
	s.Equal(models.JobStatusQueued, out.Status)
	s.False(out.CreatedAt.IsZero())

	// The record is visible to a status lookup before the response:
	// a direct lookup right after submit must already find it queued.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job/"+out.JobID, nil)
	lookup, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, lookup.StatusCode)

	var status types.JobStatusResponse
	s.decode(lookup, &status)
	s.Equal(out.JobID, status.JobID)
	s.Equal(models.JobStatusQueued, status.Status)
	s.Equal("high", status.Priority)

	// The payload was handed to the execution queue.
	task, err := s.Queue.Dequeue(context.Background())
	s.Require().NoError(err)
	s.Require().NotNil(task)
	s.Equal(out.JobID, task.JobID)
	s.JSONEq(`{"test": "value"}`, string(task.Payload))
}

func (s *JobHandlerTestSuite) TestSubmitGeneratesFreshIDs() {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		resp := s.submit(`{"data": {"n": 1}}`)
		s.Equal(fiber.StatusCreated, resp.StatusCode)

		var out types.SubmitJobResponse
		s.decode(resp, &out)
		s.False(seen[out.JobID], "job id %s returned twice", out.JobID)
		seen[out.JobID] = true
	}
}

func (s *JobHandlerTestSuite) TestSubmitMalformedBody() {
	for _, body := range []string{
		`not json`,
		`{}`,
		`{"data": null}`,
		`{"data": {"ok": true}, "priority": "urgent"}`,
	} {
		resp := s.submit(body)
		s.Equal(fiber.StatusBadRequest, resp.StatusCode, "body %q", body)

		var out types.SlugResponse
		s.decode(resp, &out)
		s.Equal(types.InvalidInputSlug, out.Slug)
		s.NotEmpty(out.Error)
	}
}

func (s *JobHandlerTestSuite) TestSubmitOversizedPayload() {
	big := bytes.Repeat([]byte("x"), 1<<16)
	body, err := json.Marshal(map[string]interface{}{
		"data": map[string]string{"blob": string(big)},
	})
	s.Require().NoError(err)

	resp := s.submit(string(body))
	s.Equal(fiber.StatusRequestEntityTooLarge, resp.StatusCode)
}

func (s *JobHandlerTestSuite) TestGetJobUnknownID() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/job/never-submitted", nil)
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	var out types.SlugResponse
	s.decode(resp, &out)
	s.Equal(types.NotFoundSlug, out.Slug)
}

func (s *JobHandlerTestSuite) TestHealthCheck() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var out types.HealthResponse
	s.decode(resp, &out)
	s.Equal("healthy", out.Status)
	s.Equal("0.0.1", out.Version)
	s.False(out.Timestamp.IsZero())
}

func (s *JobHandlerTestSuite) TestReadyCheck() {
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var out types.ReadyResponse
	s.decode(resp, &out)
	s.Equal("ready", out.Status)
}

func (s *JobHandlerTestSuite) TestRootBanner() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var out types.RootResponse
	s.decode(resp, &out)
	s.Equal("dataplane-test", out.Service)
	s.Equal("running", out.Status)
}

// unreachableQueue simulates a queue whose broker is down.
type unreachableQueue struct{}

func (unreachableQueue) Enqueue(context.Context, *queue.Task) error {
	return errors.New("broker unreachable")
}

func (unreachableQueue) Dequeue(context.Context) (*queue.Task, error) {
	return nil, errors.New("broker unreachable")
}

func (unreachableQueue) Ping(context.Context) error {
	return errors.New("broker unreachable")
}

func (s *JobHandlerTestSuite) TestSubmitEnqueueFailure() {
	cfg := &config.Settings{
		AppName:         "dataplane-test",
		AppVersion:      "0.0.1",
		CORSOrigins:     []string{"*"},
		MaxPayloadBytes: 1 << 16,
	}
	jobService := services.NewJobService(s.Records, unreachableQueue{}, 50*time.Millisecond)
	jobHandler := handlers.NewJobHandler(jobService, cfg.MaxPayloadBytes)
	healthHandler := handlers.NewHealthHandler(cfg.AppName, cfg.AppVersion)
	failApp := app.NewApp(cfg, jobHandler, healthHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewReader([]byte(`{"data": {"x": 1}}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := failApp.Test(req)
	s.Require().NoError(err)
	s.Equal(fiber.StatusInternalServerError, resp.StatusCode)

	var out types.SlugResponse
	s.decode(resp, &out)
	s.Equal(types.ServerErrorSlug, out.Slug)
}
