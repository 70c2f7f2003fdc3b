package dataview

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"mediadash/internal/platform/api"
	"mediadash/internal/platform/engine"
	"mediadash/internal/utils/parser"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

type dataQuery struct {
	Platform string `form:"platform"`
	Page     int    `form:"page"`
}

func (h *Handler) HandleViewData(c *fiber.Ctx) error {
	q := dataQuery{Platform: "xhs", Page: 1}
	if err := parser.ParseQuery(c, &q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(api.NewError("invalid query"))
	}

	platform := engine.Platform(q.Platform)
	if !platform.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(api.NewError(fmt.Sprintf("unknown platform %q", q.Platform)))
	}

	page, err := h.svc.GetPage(c.Context(), platform, q.Page)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(api.NewError(err.Error()))
	}
	return c.JSON(page)
}

func (h *Handler) HandleExport(c *fiber.Ctx) error {
	platform := engine.Platform(c.Params("platform"))
	if !platform.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(api.NewError("unknown platform"))
	}

	export, err := h.svc.BuildExport(platform, c.Params("format"))
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return c.Status(fiber.StatusNotFound).JSON(api.NewError("No data found"))
		}
		if errors.Is(err, ErrBadFormat) {
			return c.Status(fiber.StatusBadRequest).JSON(api.NewError(err.Error()))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(api.NewError(err.Error()))
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", export.FileName))
	c.Set(fiber.HeaderContentType, export.ContentType)
	if export.Path != "" {
		return c.SendFile(export.Path)
	}
	return c.Send(export.Body)
}
