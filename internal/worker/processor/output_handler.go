package processor

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"comfybridge/internal/engine"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
	"comfybridge/internal/ports"
)

const (
	// signedURLValidity es la vigencia de la URL firmada de cada artifact.
	signedURLValidity = 7 * 24 * time.Hour
	// publishWorkers acota el fan-out de fetch/publish por job.
	publishWorkers = 4
)

// OutputHandler publica los artifacts producidos por el engine.
type OutputHandler struct {
	engine *engine.Client
	store  ports.StorageProvider // nil => publicación inline en base64
	log    *logger.Logger
}

func NewOutputHandler(eng *engine.Client, store ports.StorageProvider, log *logger.Logger) *OutputHandler {
	return &OutputHandler{
		engine: eng,
		store:  store,
		log:    log.WithComponent("outputs"),
	}
}

// Collect recorre el history y publica todos los artifacts finales.
// Los artifacts temporales se excluyen, un fetch o publish fallido se
// degrada a warning y se descarta el artifact; nada acá aborta el job.
// Los fetch/publish son independientes entre sí, así que se paralelizan
// con un límite fijo; los warnings no dependen del orden de llegada.
func (h *OutputHandler) Collect(ctx context.Context, jobID string, record engine.History) ([]PublishedArtifact, []string) {
	var (
		mu        sync.Mutex
		published []PublishedArtifact
		warnings  []string
	)
	warnf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		h.log.Warn(msg, "job_id", jobID)
		mu.Lock()
		warnings = append(warnings, msg)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(publishWorkers)

	nodeIDs := make([]string, 0, len(record.Outputs))
	for nodeID := range record.Outputs {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	for _, nodeID := range nodeIDs {
		node := record.Outputs[nodeID]

		keys := make([]string, 0, len(node.Other))
		for key := range node.Other {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			warnf("node %s produced an unhandled output '%s'", nodeID, key)
		}

		for _, desc := range node.Images {
			if desc.Kind == "temp" {
				h.log.Debug("skipping temp artifact", "job_id", jobID, "filename", desc.Filename)
				continue
			}
			if desc.Filename == "" {
				warnf("skipping an artifact without filename from node %s", nodeID)
				continue
			}

			desc := desc
			g.Go(func() error {
				data, err := h.engine.FetchArtifact(gctx, desc)
				if err != nil {
					warnf("failed to fetch artifact '%s': %v", desc.Filename, err)
					return nil
				}
				art, err := h.publish(gctx, jobID, desc.Filename, data)
				if err != nil {
					warnf("failed to publish artifact '%s': %v", desc.Filename, err)
					return nil
				}
				mu.Lock()
				published = append(published, art)
				mu.Unlock()
				return nil
			})
		}
	}
	g.Wait()

	sort.Slice(published, func(i, j int) bool { return published[i].Filename < published[j].Filename })
	return published, warnings
}

func (h *OutputHandler) publish(ctx context.Context, jobID, filename string, data []byte) (PublishedArtifact, error) {
	if h.store == nil {
		return PublishedArtifact{
			Filename: filename,
			Type:     "base64",
			Data:     base64.StdEncoding.EncodeToString(data),
		}, nil
	}
	return h.publishToStore(ctx, jobID, filename, data)
}

// publishToStore sube el artifact bajo una clave namespaceada por job y
// devuelve una URL firmada. El archivo temporal se limpia en todos los
// caminos de salida, incluido el de error.
func (h *OutputHandler) publishToStore(ctx context.Context, jobID, filename string, data []byte) (PublishedArtifact, error) {
	ext := ExtFor(filename, data)

	tmp, err := os.CreateTemp("", "artifact-*"+ext)
	if err != nil {
		return PublishedArtifact{}, errors.WrapWithCode(err, errors.CodePublish, "outputs.publish",
			"failed to create temp file")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return PublishedArtifact{}, errors.WrapWithCode(err, errors.CodePublish, "outputs.publish",
			"failed to spool artifact to disk")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return PublishedArtifact{}, errors.WrapWithCode(err, errors.CodePublish, "outputs.publish",
			"failed to rewind temp file")
	}

	key := fmt.Sprintf("%s/%s%s", jobID, ShortID(), ext)
	out, err := h.store.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   key,
		ContentType: SniffMIME(data),
		Reader:      tmp,
		Size:        int64(len(data)),
	})
	if err != nil {
		return PublishedArtifact{}, errors.WrapWithCode(err, errors.CodePublish, "outputs.publish",
			"failed to store artifact "+key)
	}

	signed, err := h.store.GetSignedURL(ctx, out.ObjectKey, signedURLValidity)
	if err != nil {
		return PublishedArtifact{}, errors.WrapWithCode(err, errors.CodePublish, "outputs.publish",
			"failed to sign URL for "+out.ObjectKey)
	}

	h.log.Debug("artifact published", "job_id", jobID, "key", out.ObjectKey, "bytes", len(data))
	return PublishedArtifact{
		Filename:  filename,
		Type:      "s3_url",
		Data:      signed.URL,
		ObjectKey: out.ObjectKey,
	}, nil
}
