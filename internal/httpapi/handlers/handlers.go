package handlers

import (
	"comfybridge/internal/engine"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/ports"
	"comfybridge/internal/worker/processor"
)

type Deps struct {
	Processor *processor.Processor
	Engine    *engine.Client
	SP        ports.StorageProvider
	Log       *logger.Logger
}

type Handler struct {
	processor *processor.Processor
	engine    *engine.Client
	sp        ports.StorageProvider
	log       *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		processor: d.Processor,
		engine:    d.Engine,
		sp:        d.SP,
		log:       log.WithComponent("handlers"),
	}
}
