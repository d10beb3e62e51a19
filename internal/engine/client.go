package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"comfybridge/internal/config"
	"comfybridge/internal/pkg/backoff"
	"comfybridge/internal/pkg/errors"
	"comfybridge/internal/pkg/logger"
)

// ArtifactDescriptor locates one output file on the engine's disk, as
// reported by the history endpoint.
type ArtifactDescriptor struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Kind      string `json:"type"`
}

// NodeOutput is the output record of a single workflow node. Keys the
// bridge knows how to publish land in the typed fields; anything else
// is preserved raw so callers can report it.
type NodeOutput struct {
	Images []ArtifactDescriptor
	Other  map[string]json.RawMessage
}

func (n *NodeOutput) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if raw, ok := m["images"]; ok {
		var images []ArtifactDescriptor
		if err := json.Unmarshal(raw, &images); err == nil {
			n.Images = images
			delete(m, "images")
		}
	}
	n.Other = m
	return nil
}

// History is the per-prompt execution record keyed by node id.
type History struct {
	Outputs map[string]NodeOutput `json:"outputs"`
}

// Client is the HTTP control-plane client for the rendering engine.
type Client struct {
	http  *resty.Client
	cfg   *config.Config
	log   *logger.Logger
	ready backoff.Policy
}

// NewClient builds a client against the engine host in cfg.
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.EngineBaseURL()).
		SetHeader("Accept", "application/json")

	return &Client{
		http: httpClient,
		cfg:  cfg,
		log:  log.WithComponent("engine"),
		ready: backoff.Policy{
			MaxAttempts: cfg.ReadyMaxAttempts,
			Delay:       cfg.ReadyInterval,
		},
	}
}

// WSURL is the websocket endpoint for a given correlation client id.
func (c *Client) WSURL(clientID string) string {
	return c.cfg.EngineWSURL(clientID)
}

// Reachable probes the engine root endpoint once.
func (c *Client) Reachable(ctx context.Context) error {
	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.http.R().SetContext(reqCtx).Get("/")
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeEngineUnreachable, "engine.Reachable", "engine is not reachable")
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Newf(errors.CodeEngineUnreachable, "engine returned status %d on readiness probe", resp.StatusCode())
	}
	return nil
}

// WaitReady blocks until the engine answers its root endpoint, retrying
// on a fixed interval up to the configured attempt budget.
func (c *Client) WaitReady(ctx context.Context) error {
	attempt := 0
	err := c.ready.Do(ctx, func(ctx context.Context) error {
		attempt++
		if err := c.Reachable(ctx); err != nil {
			if attempt%50 == 0 {
				c.log.Debug("still waiting for engine", "attempt", attempt)
			}
			return backoff.Retryable(err)
		}
		return nil
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeEngineUnreachable, "engine.WaitReady",
			fmt.Sprintf("engine did not become ready after %d attempts", c.ready.MaxAttempts))
	}
	c.log.Info("engine is reachable", "attempts", attempt)
	return nil
}

type submitResponse struct {
	PromptID string `json:"prompt_id"`
}

// Submit queues a workflow for execution and returns the engine's
// prompt id. A 400 response is parsed into a detailed validation
// error; anything else non-2xx is a submission failure.
func (c *Client) Submit(ctx context.Context, workflow json.RawMessage, clientID string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	body := map[string]any{
		"prompt":    workflow,
		"client_id": clientID,
	}

	resp, err := c.http.R().
		SetContext(reqCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/prompt")
	if err != nil {
		return "", errors.WrapWithCode(err, errors.CodeSubmissionFailed, "engine.Submit", "failed to queue workflow")
	}

	switch {
	case resp.StatusCode() == http.StatusBadRequest:
		return "", c.parseSubmissionError(ctx, resp.Body())
	case resp.StatusCode() != http.StatusOK:
		return "", errors.Newf(errors.CodeSubmissionFailed,
			"engine returned status %d while queuing workflow: %s", resp.StatusCode(), resp.String())
	}

	var queued submitResponse
	if err := json.Unmarshal(resp.Body(), &queued); err != nil || queued.PromptID == "" {
		return "", errors.Newf(errors.CodeSubmissionFailed,
			"missing prompt_id in queue response: %s", resp.String())
	}
	return queued.PromptID, nil
}

// History fetches the execution record for a prompt. A prompt the
// engine has no record of yields CodeHistoryNotFound.
func (c *Client) History(ctx context.Context, promptID string) (History, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.http.R().SetContext(reqCtx).Get("/history/" + promptID)
	if err != nil {
		return History{}, errors.Wrap(err, "engine.History", "failed to fetch execution history")
	}
	if resp.StatusCode() != http.StatusOK {
		return History{}, errors.Newf(errors.CodeInternal,
			"engine returned status %d for history of prompt %s", resp.StatusCode(), promptID)
	}

	var records map[string]History
	if err := json.Unmarshal(resp.Body(), &records); err != nil {
		return History{}, errors.Wrap(err, "engine.History", "failed to decode execution history")
	}
	record, ok := records[promptID]
	if !ok {
		return History{}, errors.Newf(errors.CodeHistoryNotFound, "no execution history for prompt %s", promptID)
	}
	return record, nil
}

// FetchArtifact downloads one output file from the engine.
func (c *Client) FetchArtifact(ctx context.Context, desc ArtifactDescriptor) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.http.R().
		SetContext(reqCtx).
		SetQueryParams(map[string]string{
			"filename":  desc.Filename,
			"subfolder": desc.Subfolder,
			"type":      desc.Kind,
		}).
		Get("/view")
	if err != nil {
		return nil, errors.Wrap(err, "engine.FetchArtifact", "failed to download artifact "+desc.Filename)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.Newf(errors.CodeInternal,
			"engine returned status %d for artifact %s", resp.StatusCode(), desc.Filename)
	}
	return resp.Body(), nil
}

// UploadMedia pushes one input file into the engine's input directory,
// overwriting any previous file of the same name.
func (c *Client) UploadMedia(ctx context.Context, name, contentType string, data []byte) error {
	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := c.http.R().
		SetContext(reqCtx).
		SetMultipartFields(&resty.MultipartField{
			Param:       "image",
			FileName:    name,
			ContentType: contentType,
			Reader:      bytes.NewReader(data),
		}).
		SetMultipartFormData(map[string]string{"overwrite": "true"}).
		Post("/upload/image")
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeUpload, "engine.UploadMedia", "failed to upload "+name)
	}
	if resp.StatusCode() != http.StatusOK {
		return errors.Newf(errors.CodeUpload,
			"engine returned status %d while uploading %s: %s", resp.StatusCode(), name, resp.String())
	}
	return nil
}

// AvailableModels lists checkpoint model names known to the engine.
// It is best effort; any failure yields an empty list.
func (c *Client) AvailableModels(ctx context.Context) []string {
	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := c.http.R().SetContext(reqCtx).Get("/object_info")
	if err != nil || resp.StatusCode() != http.StatusOK {
		return nil
	}

	var nodes map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body(), &nodes); err != nil {
		return nil
	}
	raw, ok := nodes["CheckpointLoaderSimple"]
	if !ok {
		return nil
	}

	var loader struct {
		Input struct {
			Required map[string]json.RawMessage `json:"required"`
		} `json:"input"`
	}
	if err := json.Unmarshal(raw, &loader); err != nil {
		return nil
	}
	ckpt, ok := loader.Input.Required["ckpt_name"]
	if !ok {
		return nil
	}

	// The engine encodes the option list as [["model-a", "model-b"], {...}].
	var options []json.RawMessage
	if err := json.Unmarshal(ckpt, &options); err != nil || len(options) == 0 {
		return nil
	}
	var models []string
	if err := json.Unmarshal(options[0], &models); err != nil {
		return nil
	}
	return models
}
