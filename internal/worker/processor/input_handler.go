package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"comfybridge/internal/engine"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/ports"
)

// remoteFetchTimeout acota la descarga de un input por URL.
const remoteFetchTimeout = 60 * time.Second

// InputHandler resuelve los inputs de un job y los sube al engine.
type InputHandler struct {
	engine *engine.Client
	store  ports.StorageProvider
	http   *resty.Client
	log    *logger.Logger
}

// NewInputHandler crea el handler. store puede ser nil si no hay
// storage de descarga configurado; en ese caso los inputs de tipo
// object_store_key fallan con MediaResolution.
func NewInputHandler(eng *engine.Client, store ports.StorageProvider, log *logger.Logger) *InputHandler {
	return &InputHandler{
		engine: eng,
		store:  store,
		http:   resty.New().SetTimeout(remoteFetchTimeout),
		log:    log.WithComponent("inputs"),
	}
}

// Resolve obtiene los bytes de un MediaRef según su tipo de origen
func (h *InputHandler) Resolve(ctx context.Context, ref MediaRef) ([]byte, error) {
	switch ref.Type {
	case SourceInline, "":
		payload := ref.Media
		// un data URL lleva prefijo "data:<mime>;base64," antes del contenido
		if strings.HasPrefix(payload, "data:") {
			if i := strings.IndexByte(payload, ','); i >= 0 {
				payload = payload[i+1:]
			}
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMediaResolution, "inputs.Resolve",
				fmt.Sprintf("invalid base64 payload for '%s'", ref.Name))
		}
		return data, nil

	case SourceRemoteURL:
		resp, err := h.http.R().SetContext(ctx).Get(ref.Media)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMediaResolution, "inputs.Resolve",
				fmt.Sprintf("failed to download '%s'", ref.Name))
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, errors.Newf(errors.CodeMediaResolution,
				"download of '%s' returned status %d", ref.Name, resp.StatusCode())
		}
		return resp.Body(), nil

	case SourceObjectStoreKey:
		if h.store == nil {
			return nil, errors.Newf(errors.CodeMediaResolution,
				"no download storage configured for '%s'", ref.Name)
		}
		rc, _, _, err := h.store.GetObject(ctx, ref.Media)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMediaResolution, "inputs.Resolve",
				fmt.Sprintf("failed to fetch '%s' from storage", ref.Name))
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, errors.WrapWithCode(err, errors.CodeMediaResolution, "inputs.Resolve",
				fmt.Sprintf("failed to read '%s' from storage", ref.Name))
		}
		return data, nil

	default:
		return nil, errors.Newf(errors.CodeMediaResolution,
			"unsupported media type '%s' for '%s'", ref.Type, ref.Name)
	}
}

// UploadToEngine resuelve y sube todos los inputs al staging del
// engine. Los fallos por item se agregan en el reporte; no se corta en
// el primero para poder reportar todos los items malos de una vez.
func (h *InputHandler) UploadToEngine(ctx context.Context, media []MediaRef) UploadReport {
	var report UploadReport
	for _, ref := range media {
		name := SanitizeFilename(ref.Name)

		data, err := h.Resolve(ctx, ref)
		if err != nil {
			h.log.Error("input resolution failed", "name", ref.Name, "error", err)
			report.Errors = append(report.Errors, fmt.Sprintf("failed to resolve '%s': %v", ref.Name, err))
			continue
		}

		contentType := SniffMIME(data)
		if err := h.engine.UploadMedia(ctx, name, contentType, data); err != nil {
			h.log.Error("input upload failed", "name", name, "error", err)
			report.Errors = append(report.Errors, fmt.Sprintf("failed to upload '%s': %v", ref.Name, err))
			continue
		}

		h.log.Debug("input uploaded", "name", name, "content_type", contentType, "bytes", len(data))
		report.Details = append(report.Details, fmt.Sprintf("successfully uploaded %s", name))
	}
	return report
}
