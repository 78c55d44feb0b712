package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"keyword-volume/internal/service"
)

// NewApp builds the fiber application with every route registered.
func NewApp(svc service.VolumeService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "keyword-volume",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return jsonError(c, code, err.Error())
		},
	})

	app.Use(recover.New())

	ctl := NewController(svc)
	app.Get("/check-volume", ctl.CheckVolume)
	app.Post("/check-batch", ctl.CheckBatch)
	app.Post("/n8n/check-keywords", ctl.CheckN8N)
	app.Post("/n8n/test", ctl.EchoN8N)
	app.Get("/export/csv", ctl.ExportCSV)
	app.Get("/export/json", ctl.ExportJSON)
	app.Get("/methods", ctl.Methods)
	app.Delete("/cache", ctl.ClearCache)
	app.Post("/cache/clear", ctl.ClearCache)
	app.Get("/health", ctl.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}
