package processor

import "encoding/json"

// SourceKind indica cómo se obtiene el contenido de un MediaRef.
type SourceKind string

const (
	SourceInline         SourceKind = "inline"
	SourceRemoteURL      SourceKind = "remote_url"
	SourceObjectStoreKey SourceKind = "object_store_key"
)

// MediaRef es una referencia a un archivo de entrada del job.
type MediaRef struct {
	Name  string     `json:"name"`
	Media string     `json:"media"`
	Type  SourceKind `json:"type"`
}

// Job es el trabajo validado, inmutable después del parseo.
type Job struct {
	ID       string
	Workflow json.RawMessage
	Media    []MediaRef
}

// PublishedArtifact es un output ya publicado, inline o en object storage.
type PublishedArtifact struct {
	Filename  string `json:"filename"`
	Type      string `json:"type"` // "s3_url" | "base64"
	Data      string `json:"data"`
	ObjectKey string `json:"s3_file_key,omitempty"`
}

// StatusNoMedia marca un job que terminó sin producir outputs y sin errores.
const StatusNoMedia = "success_no_media"

// Result es el payload final de un job exitoso (posiblemente con warnings).
type Result struct {
	Media  []PublishedArtifact `json:"media"`
	Errors []string            `json:"errors,omitempty"`
	Status string              `json:"status,omitempty"`
}

// UploadReport resume la subida de inputs al engine, una línea por item.
type UploadReport struct {
	Details []string
	Errors  []string
}

// OK es false si cualquier item falló, sin importar cuántos subieron bien.
func (r UploadReport) OK() bool {
	return len(r.Errors) == 0
}
