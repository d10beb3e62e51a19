package processor

import (
	"encoding/json"
	"fmt"

	"comfybridge/internal/pkg/errors"
)

// ParseJob valida el payload de entrada y produce un Job inmutable.
// El payload puede venir como objeto o como string JSON-encoded.
// Sin efectos secundarios: sólo valida y normaliza.
func ParseJob(id string, input any) (*Job, error) {
	if input == nil {
		return nil, errors.New(errors.CodeValidation, "please provide input")
	}

	// Un string se trata como JSON sin decodificar
	if s, ok := input.(string); ok {
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, errors.New(errors.CodeValidation, "invalid JSON format in input")
		}
		input = decoded
	}

	obj, ok := input.(map[string]any)
	if !ok {
		return nil, errors.New(errors.CodeValidation, "missing 'workflow' parameter")
	}

	rawWorkflow, ok := obj["workflow"]
	if !ok || rawWorkflow == nil {
		return nil, errors.New(errors.CodeValidation, "missing 'workflow' parameter")
	}
	workflow, err := json.Marshal(rawWorkflow)
	if err != nil {
		return nil, errors.Wrap(err, "processor.parse", "failed to re-encode workflow")
	}

	job := &Job{ID: id, Workflow: workflow}

	// media es opcional; ausente equivale a lista vacía
	rawMedia, ok := obj["media"]
	if !ok || rawMedia == nil {
		return job, nil
	}

	list, ok := rawMedia.([]any)
	if !ok {
		return nil, errors.New(errors.CodeValidation,
			"'media' must be a list of objects with 'name' and 'media' keys")
	}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errors.New(errors.CodeValidation,
				"'media' must be a list of objects with 'name' and 'media' keys")
		}
		name, hasName := m["name"].(string)
		payload, hasPayload := m["media"].(string)
		if !hasName || !hasPayload || name == "" || payload == "" {
			return nil, errors.New(errors.CodeValidation,
				"'media' must be a list of objects with 'name' and 'media' keys")
		}

		kind := SourceInline
		if t, ok := m["type"].(string); ok && t != "" {
			kind = SourceKind(t)
		}
		switch kind {
		case SourceInline, SourceRemoteURL, SourceObjectStoreKey:
		default:
			return nil, errors.New(errors.CodeValidation,
				fmt.Sprintf("media item '%s' has unsupported type '%s'", name, kind))
		}

		job.Media = append(job.Media, MediaRef{Name: name, Media: payload, Type: kind})
	}

	return job, nil
}
