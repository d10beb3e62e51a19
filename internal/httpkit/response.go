package httpkit

import (
	"encoding/json"
	"net/http"

	"comfybridge/internal/pkg/errors"
)

// ErrorEnvelope es el cuerpo de toda respuesta de error del bridge.
type ErrorEnvelope struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

func DecodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErr(w http.ResponseWriter, status int, code, msg string, details []string) {
	WriteJSON(w, status, ErrorEnvelope{
		Error:   msg,
		Code:    code,
		Details: details,
	})
}

// WriteErrFrom mapea un error del dominio a su status HTTP y envelope.
func WriteErrFrom(w http.ResponseWriter, err error) {
	var e *errors.Error
	if errors.As(err, &e) {
		WriteErr(w, e.HTTPStatus(), string(e.Code), e.Message, e.Details)
		return
	}
	WriteErr(w, http.StatusInternalServerError, string(errors.CodeInternal), err.Error(), nil)
}
