package server

import (
	"mediadash/internal/core/crawl"
	"mediadash/internal/core/dataview"
	"mediadash/internal/core/job"
	"mediadash/internal/core/login"
	"mediadash/internal/health"
	"mediadash/internal/platform/redis"

	"github.com/gofiber/fiber/v2"
)

type Dependencies struct {
	Store    *job.Store
	Crawl    *crawl.Service
	Login    *login.Service
	DataView *dataview.Service
	Redis    *redis.Service
	QRDir    string
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	healthHandler := health.NewHealthHandler(d.Redis)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	crawlHandler := crawl.NewHandler(d.Store, d.Crawl, d.QRDir)
	api.Post("/jobs", crawlHandler.HandleCreateJob)
	api.Get("/jobs", crawlHandler.HandleListJobs)
	api.Get("/jobs/:jobId", crawlHandler.HandleGetJob)
	api.Get("/platforms", crawlHandler.HandleListPlatforms)

	loginHandler := login.NewHandler(d.Login, d.QRDir)
	api.Post("/login/:platform", loginHandler.HandleStartLogin)
	api.Get("/login/qr", loginHandler.HandleQRStatus)
	api.Get("/qrcode/:filename", loginHandler.HandleGetQRCode)

	dataHandler := dataview.NewHandler(d.DataView)
	api.Get("/data", dataHandler.HandleViewData)
	api.Get("/export/:platform/:format", dataHandler.HandleExport)

	return healthHandler
}
