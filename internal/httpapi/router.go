package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"comfybridge/internal/engine"
	"comfybridge/internal/httpapi/handlers"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/pkg/middleware"
	"comfybridge/internal/ports"
	"comfybridge/internal/worker/processor"
)

type Deps struct {
	Processor *processor.Processor
	Engine    *engine.Client
	SP        ports.StorageProvider
	Log       *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(d.Log))
	r.Use(middleware.Recovery(d.Log))

	h := handlers.New(handlers.Deps{
		Processor: d.Processor,
		Engine:    d.Engine,
		SP:        d.SP,
		Log:       d.Log,
	})

	// ---- HEALTH ----
	r.Get("/healthz", h.Health)

	// ---- JOBS ----
	r.Post("/run", h.Run)

	return r
}
