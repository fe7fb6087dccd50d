package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
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
	"github.com/briggon/dataplane/internal/processor"
	queuememory "github.com/briggon/dataplane/internal/queue/memory"
	storememory "github.com/briggon/dataplane/internal/store/memory"
	"github.com/briggon/dataplane/internal/types"
	"github.com/briggon/dataplane/internal/worker"
)

// LifecycleTestSuite exercises the full submit → execute → poll loop with
// the API and a worker pool sharing in-memory backends.
type LifecycleTestSuite struct {
	suite.Suite
	App     *fiber.App
	Objects *objectstore.MemoryStore
	Pool    *worker.Pool
	cancel  context.CancelFunc
}

func (s *LifecycleTestSuite) SetupTest() {
	records := storememory.New()
	q := queuememory.New(32, 10*time.Millisecond)
	s.Objects = objectstore.NewMemoryStore()

	// Reject payloads carrying {"reject": true}; echo everything else.
	proc := processor.Func(func(ctx context.Context, jobID string, payload json.RawMessage, report processor.ProgressFunc) ([]byte, error) {
		var probe struct {
			Reject bool `json:"reject"`
		}
		if err := json.Unmarshal(payload, &probe); err == nil && probe.Reject {
			return nil, errors.New("payload rejected by validation")
		}
		return processor.NewEcho().Process(ctx, jobID, payload, report)
	})

	cfg := &config.Settings{
		AppName:         "dataplane-test",
		AppVersion:      "0.0.1",
		CORSOrigins:     []string{"*"},
		MaxPayloadBytes: 1 << 16,
	}

	jobService := services.NewJobService(records, q, time.Second)
	jobHandler := handlers.NewJobHandler(jobService, cfg.MaxPayloadBytes)
	healthHandler := handlers.NewHealthHandler(cfg.AppName, cfg.AppVersion, records, q, s.Objects)
	s.App = app.NewApp(cfg, jobHandler, healthHandler)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.Pool = worker.NewPool(q, worker.NewExecutor(records, s.Objects, proc), 2)
	s.Pool.Start(ctx)
}

func (s *LifecycleTestSuite) TearDownTest() {
	s.Pool.Stop()
	s.cancel()
}

func TestLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (s *LifecycleTestSuite) submit(body string) types.SubmitJobResponse {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/process", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	s.Require().NoError(err)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)

	var out types.SubmitJobResponse
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Require().NoError(json.Unmarshal(raw, &out))
	return out
}

func (s *LifecycleTestSuite) pollUntilTerminal(jobID string) types.JobStatusResponse {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/job/"+jobID, nil)
		resp, err := s.App.Test(req)
		s.Require().NoError(err)
		s.Require().Equal(fiber.StatusOK, resp.StatusCode)

		var out types.JobStatusResponse
		raw, err := io.ReadAll(resp.Body)
		s.Require().NoError(err)
		s.Require().NoError(json.Unmarshal(raw, &out))

		if out.Status.Terminal() {
			return out
		}
		time.Sleep(20 * time.Millisecond)
	}
	s.T().Fatalf("job %s never reached a terminal status", jobID)
	return types.JobStatusResponse{}
}

func (s *LifecycleTestSuite) TestSubmitThenPollUntilCompleted() {
	out := s.submit(`{"data": {"test": "value"}, "priority": "high"}`)
	s.Equal(models.JobStatusQueued, out.Status)

	final := s.pollUntilTerminal(out.JobID)
	s.Equal(models.JobStatusCompleted, final.Status)
	s.Equal(1.0, final.Progress)
	s.Empty(final.Error)
	s.True(strings.HasPrefix(final.ResultLocation, "results/"), "result location %q", final.ResultLocation)

	// The result location resolves to the processor's output.
	blob, err := s.Objects.Get(context.Background(), final.ResultLocation)
	s.Require().NoError(err)
	var result processor.EchoResult
	s.Require().NoError(json.Unmarshal(blob, &result))
	s.True(result.Processed)
	s.Equal(out.JobID, result.JobID)
}

func (s *LifecycleTestSuite) TestSubmitRejectedPayloadFails() {
	out := s.submit(`{"data": {"reject": true}}`)

	final := s.pollUntilTerminal(out.JobID)
	s.Equal(models.JobStatusFailed, final.Status)
	s.Equal("payload rejected by validation", final.Error)
	s.Empty(final.ResultLocation)
	s.Equal(0, s.Objects.Len())
}
