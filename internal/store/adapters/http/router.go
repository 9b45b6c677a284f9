// Package http собирает HTTP API сервиса хранения.
package http

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/static"

	"notesync/internal/store/adapters/http/handlers"
	"notesync/internal/store/adapters/http/middleware"
)

// Routes - зависимости маршрутизатора.
type Routes struct {
	Notes       handlers.NotesService
	Images      handlers.ImagesService
	ImagesDir   string
	ImageMaxAge int
	Broadcast   fiber.Handler
	CORSOrigins []string
}

// SetupRouter настраивает маршрутизацию HTTP сервера.
func SetupRouter(app *fiber.App, r Routes) {
	notesHandler := handlers.NewNotesHandler(r.Notes)
	imagesHandler := handlers.NewImagesHandler(r.Images)

	app.Use(middleware.NewRequestIDMiddleware())
	app.Use(middleware.NewLoggerMiddleware())
	app.Use(middleware.NewRecoveryMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: r.CORSOrigins,
		AllowMethods: []string{fiber.MethodGet, fiber.MethodPost, fiber.MethodOptions},
		AllowHeaders: []string{fiber.HeaderContentType, middleware.HeaderRequestID},
	}))

	app.Get("/health", handlers.Health)

	api := app.Group("/api")
	api.Get("/notes", notesHandler.ListNotes)
	api.Post("/notes/update", notesHandler.UpsertNotes)
	api.Post("/notes/delete", notesHandler.DeleteNote)
	api.Post("/notes/rename", notesHandler.RenameNote)
	api.Post("/upload-image", imagesHandler.UploadImage)
	api.Post("/delete-image", imagesHandler.DeleteImage)

	if r.ImagesDir != "" {
		// Изображения перезаписываются на месте, поэтому кеш файлов fasthttp отключен.
		app.Get("/images/*", static.New(r.ImagesDir, static.Config{
			CacheDuration: -1,
			MaxAge:        r.ImageMaxAge,
		}))
	}
	if r.Broadcast != nil {
		app.Get("/ws", r.Broadcast)
	}

	app.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Route not found",
		})
	})
}
