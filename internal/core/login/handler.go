package login

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"mediadash/internal/platform/api"
	"mediadash/internal/platform/engine"
)

type Handler struct {
	svc   *Service
	qrDir string
}

func NewHandler(svc *Service, qrDir string) *Handler {
	return &Handler{svc: svc, qrDir: qrDir}
}

func (h *Handler) HandleStartLogin(c *fiber.Ctx) error {
	platform := engine.Platform(c.Params("platform"))
	if !platform.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(api.NewError("unknown platform"))
	}
	sessionID, err := h.svc.Enqueue(c.Context(), platform)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(api.NewError(err.Error()))
	}
	return c.JSON(api.LoginStartResponse{
		Success:   true,
		SessionID: sessionID,
		Message:   "Scan the QR code with your phone once it appears",
	})
}

// HandleQRStatus reports whether a QR artifact is available. With a
// session_id it matches the tagged artifact; without one it falls back
// to the most recent image.
func (h *Handler) HandleQRStatus(c *fiber.Ctx) error {
	var qr QRArtifact
	var ok bool
	if sessionID := c.Query("session_id"); sessionID != "" {
		qr, ok = FindQR(h.qrDir, sessionID)
	} else {
		qr, ok = LatestQR(h.qrDir)
	}
	if !ok {
		return c.JSON(api.QRInfo{QRCodeAvailable: false})
	}
	return c.JSON(api.QRInfo{QRCodeAvailable: true, QRCodeFile: qr.File})
}

// HandleGetQRCode serves a QR image by filename. The name is reduced to
// its base so the lookup cannot escape the scratch directory.
func (h *Handler) HandleGetQRCode(c *fiber.Ctx) error {
	name := filepath.Base(c.Params("filename"))
	path := filepath.Join(h.qrDir, name)
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(api.NewError("QR code not found"))
	}
	return c.SendFile(path)
}
