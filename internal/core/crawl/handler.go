package crawl

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"mediadash/internal/core/job"
	"mediadash/internal/core/login"
	"mediadash/internal/platform/api"
	"mediadash/internal/platform/engine"
)

type Handler struct {
	store *job.Store
	svc   *Service
	qrDir string
}

func NewHandler(store *job.Store, svc *Service, qrDir string) *Handler {
	return &Handler{store: store, svc: svc, qrDir: qrDir}
}

func (h *Handler) HandleCreateJob(c *fiber.Ctx) error {
	var req api.JobCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.NewError("invalid body"))
	}
	id, err := h.svc.Submit(c.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrUnknownPlatform) {
			return c.Status(fiber.StatusBadRequest).JSON(api.NewError(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(api.NewError(err.Error()))
	}
	return c.JSON(api.JobCreateResponse{Success: true, JobID: id, Message: "Job started successfully!"})
}

type listResponse struct {
	ActiveJobs []job.Record `json:"active_jobs"`
	JobHistory []job.Record `json:"job_history"`
}

func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	return c.JSON(listResponse{
		ActiveJobs: h.store.ListActive(),
		JobHistory: h.store.History(job.DefaultHistoryLimit),
	})
}

type statusResponse struct {
	job.Record
	api.QRInfo
}

// HandleGetJob returns the live record if active, falls back to history,
// and reports a structured miss otherwise. QR availability is advisory:
// it only says a QR image currently exists in the scratch directory.
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	id := c.Params("jobId")
	rec, ok := h.store.Get(id)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(api.NewError("Job not found"))
	}

	resp := statusResponse{Record: rec}
	if !rec.Status.Terminal() {
		if qr, ok := login.LatestQR(h.qrDir); ok {
			resp.QRCodeAvailable = true
			resp.QRCodeFile = qr.File
		}
	}
	return c.JSON(resp)
}

func (h *Handler) HandleListPlatforms(c *fiber.Ctx) error {
	platforms := make([]api.PlatformInfo, 0, len(engine.Platforms()))
	for _, p := range engine.Platforms() {
		platforms = append(platforms, api.PlatformInfo{Code: string(p), DisplayName: p.DisplayName()})
	}
	return c.JSON(platforms)
}
