package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"comfybridge/internal/httpkit"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/worker/processor"
)

type runRequest struct {
	ID    string `json:"id"`
	Input any    `json:"input"`
}

type runResponse struct {
	ID string `json:"id"`
	*processor.Result
}

// Run ejecuta un job completo de forma síncrona: el request queda
// abierto hasta que el workflow termina o falla.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, http.StatusBadRequest, string(errors.CodeBadRequest),
			"invalid JSON body", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx := logger.ContextWithJobID(r.Context(), req.ID)
	log := h.log.FromContext(ctx).WithJobID(req.ID)
	log.Info("job received")

	result, err := h.processor.ProcessJob(ctx, req.ID, req.Input)
	if err != nil {
		log.Error("job failed", "error", err)
		httpkit.WriteErrFrom(w, err)
		return
	}

	httpkit.WriteJSON(w, http.StatusOK, runResponse{ID: req.ID, Result: result})
}
