package processor

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// SanitizeFilename limpia un nombre de archivo de caracteres peligrosos
func SanitizeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "..", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		return "input"
	}
	return s
}

// ShortID genera un identificador corto para claves de objeto
func ShortID() string {
	return uuid.NewString()[:8]
}

// SniffMIME detecta el content type de un blob. El sniffer de la
// stdlib sólo conoce un puñado de formatos; si no reconoce el blob se
// delega en mimetype, que cubre los formatos de audio/video del engine.
func SniffMIME(data []byte) string {
	ct := http.DetectContentType(data)
	if ct != "application/octet-stream" {
		return ct
	}
	return mimetype.Detect(data).String()
}

// ExtFor decide la extensión para publicar un artifact: se preserva la
// extensión original del filename; si no tiene, se deduce del contenido
// y como último recurso se usa .bin.
func ExtFor(filename string, data []byte) string {
	if ext := filepath.Ext(filename); ext != "" {
		return ext
	}
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}
