// Package handlers provides HTTP request handling
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	fiber "github.com/gofiber/fiber/v2"

	"github.com/briggon/dataplane/internal/api/v1/services"
	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/store"
	"github.com/briggon/dataplane/internal/types"
)

// JobHandler handles HTTP requests for job submission and status lookup
type JobHandler struct {
	jobService      *services.JobService
	maxPayloadBytes int
}

// NewJobHandler creates a new instance of JobHandler
func NewJobHandler(jobService *services.JobService, maxPayloadBytes int) *JobHandler {
	return &JobHandler{
		jobService:      jobService,
		maxPayloadBytes: maxPayloadBytes,
	}
}

// SubmitJob handles accepting a payload and queueing a background job
func (h *JobHandler) SubmitJob(c *fiber.Ctx) error {
	var req types.SubmitJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput("Invalid request body"))
	}

	if len(req.Data) == 0 || string(req.Data) == "null" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput("Field 'data' is required"))
	}
	if !json.Valid(req.Data) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput("Field 'data' must be valid JSON"))
	}
	if h.maxPayloadBytes > 0 && len(req.Data) > h.maxPayloadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(
			types.ErrInvalidInput(fmt.Sprintf("Payload exceeds maximum of %d bytes", h.maxPayloadBytes)))
	}

	priority, err := models.ParseJobPriority(req.Priority)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput(err.Error()))
	}

	job, err := h.jobService.Submit(c.Context(), req.Data, priority)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServer(err.Error()))
	}

	return c.Status(fiber.StatusCreated).JSON(types.SubmitJobResponse{
		JobID:     job.ID,
		Status:    job.Status,
		Message:   "Job queued for processing",
		CreatedAt: job.CreatedAt,
	})
}

// GetJob handles retrieving the status of a job by ID
func (h *JobHandler) GetJob(c *fiber.Ctx) error {
	jobID := c.Params("id")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ErrInvalidInput("Job ID is required"))
	}

	job, err := h.jobService.Get(c.Context(), jobID)
	if err != nil {
		// An unknown ID is a 404, never a fabricated pending status.
		if errors.Is(err, store.ErrJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ErrNotFound(fmt.Sprintf("Job %s not found", jobID)))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(types.ErrServer(err.Error()))
	}

	return c.JSON(types.NewJobStatusResponse(job))
}
