package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"comfybridge/internal/pkg/errors"
)

type submitErrorBody struct {
	Error      json.RawMessage            `json:"error"`
	NodeErrors map[string]json.RawMessage `json:"node_errors"`
}

type submitErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// parseSubmissionError turns the engine's 400 response into a
// validation error a workflow author can act on. Node errors become
// per-node detail lines; missing-model failures are enriched with the
// checkpoint models the engine actually has installed.
func (c *Client) parseSubmissionError(ctx context.Context, body []byte) error {
	var parsed submitErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return errors.Newf(errors.CodeValidation,
			"workflow validation failed (could not parse error response): %s", string(body))
	}

	message := "Workflow validation failed"
	var topLevel submitErrorDetail
	if len(parsed.Error) > 0 {
		if err := json.Unmarshal(parsed.Error, &topLevel); err == nil && topLevel.Message != "" {
			message = topLevel.Message
		} else {
			var s string
			if err := json.Unmarshal(parsed.Error, &s); err == nil && s != "" {
				message = s
			}
		}
	}

	details := nodeErrorDetails(parsed.NodeErrors)

	if topLevel.Type == "prompt_outputs_failed_validation" || anyMissingModel(details) {
		details = append(details, c.modelHint(ctx))
	}

	if len(details) == 0 {
		return errors.Newf(errors.CodeValidation, "%s: %s", message, string(body))
	}
	return errors.New(errors.CodeValidation, message).WithDetails(details...)
}

// nodeErrorDetails flattens the per-node error map into stable,
// human-readable lines.
func nodeErrorDetails(nodeErrors map[string]json.RawMessage) []string {
	var details []string
	for nodeID, raw := range nodeErrors {
		var node struct {
			Errors []struct {
				Type    string `json:"type"`
				Message string `json:"message"`
				Details string `json:"details"`
			} `json:"errors"`
			ClassType string `json:"class_type"`
		}
		if err := json.Unmarshal(raw, &node); err != nil || len(node.Errors) == 0 {
			details = append(details, fmt.Sprintf("Node %s: %s", nodeID, string(raw)))
			continue
		}
		for _, e := range node.Errors {
			line := fmt.Sprintf("Node %s (%s): %s", nodeID, node.ClassType, e.Message)
			if e.Details != "" {
				line += " " + e.Details
			}
			details = append(details, line)
		}
	}
	return details
}

func anyMissingModel(details []string) bool {
	for _, d := range details {
		if strings.Contains(d, "not in list") && strings.Contains(d, "ckpt_name") {
			return true
		}
	}
	return false
}

func (c *Client) modelHint(ctx context.Context) string {
	models := c.AvailableModels(ctx)
	if len(models) == 0 {
		return "This usually means a required model is not available. No checkpoint models appear to be installed on the engine."
	}
	return "This usually means a required model is not available. Installed checkpoint models: " + strings.Join(models, ", ")
}
