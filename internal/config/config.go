// Package config holds the environment-derived configuration for one
// bridge process. It is loaded once at startup and passed by reference
// into constructors; core logic never reads the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Bucket is one set of object-store credentials.
type Bucket struct {
	EndpointURL     string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Name            string
}

// Configured reports whether this credential set is complete enough to
// build a client. Region is optional.
func (b Bucket) Configured() bool {
	return b.EndpointURL != "" && b.AccessKeyID != "" && b.SecretAccessKey != "" && b.Name != ""
}

// Config is the process configuration.
type Config struct {
	// EngineHost is the host:port of the rendering engine.
	EngineHost string

	// ReadyMaxAttempts and ReadyInterval bound the startup readiness probe.
	ReadyMaxAttempts int
	ReadyInterval    time.Duration

	// ReconnectAttempts and ReconnectDelay bound the websocket reconnect loop.
	ReconnectAttempts int
	ReconnectDelay    time.Duration

	// HTTPPort is the port the bridge API listens on.
	HTTPPort string

	// StorageProvider selects the publish destination: "s3", "gdrive",
	// "localfs", or empty for inline (base64) publishing.
	StorageProvider string
	// LocalRoot is the root directory for the localfs provider.
	LocalRoot string

	// Upload is the object-store credential set for publishing artifacts.
	Upload Bucket
	// Download is the credential set for resolving object_store_key inputs.
	// Falls back to Upload when any of its variables is unset.
	Download Bucket

	// GDrive credentials for the gdrive provider.
	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		EngineHost:        Env("COMFY_HOST", "127.0.0.1:8188"),
		ReadyMaxAttempts:  IntEnv("COMFY_API_AVAILABLE_MAX_RETRIES", 500),
		ReadyInterval:     time.Duration(IntEnv("COMFY_API_AVAILABLE_INTERVAL_MS", 50)) * time.Millisecond,
		ReconnectAttempts: IntEnv("WEBSOCKET_RECONNECT_ATTEMPTS", 5),
		ReconnectDelay:    time.Duration(IntEnv("WEBSOCKET_RECONNECT_DELAY_S", 3)) * time.Second,
		HTTPPort:          Env("HTTP_PORT", "8080"),
		StorageProvider:   Env("STORAGE_PROVIDER", ""),
		LocalRoot:         Env("STORAGE_LOCAL_ROOT", "/data"),
		Upload: Bucket{
			EndpointURL:     Env("BUCKET_ENDPOINT_URL", ""),
			AccessKeyID:     Env("BUCKET_ACCESS_KEY_ID", ""),
			SecretAccessKey: Env("BUCKET_SECRET_ACCESS_KEY", ""),
			Region:          Env("BUCKET_REGION", ""),
			Name:            Env("BUCKET_NAME", ""),
		},
		GDriveClientID:     Env("GDRIVE_CLIENT_ID", ""),
		GDriveClientSecret: Env("GDRIVE_CLIENT_SECRET", ""),
		GDriveRefreshToken: Env("GDRIVE_REFRESH_TOKEN", ""),
		GDriveFolderID:     Env("GDRIVE_FOLDER_ID", ""),
	}

	// A download-specific credential set applies only when complete;
	// otherwise input resolution reuses the upload credentials.
	download := Bucket{
		EndpointURL:     Env("BUCKET_DOWNLOAD_ENDPOINT_URL", ""),
		AccessKeyID:     Env("BUCKET_DOWNLOAD_ACCESS_KEY_ID", ""),
		SecretAccessKey: Env("BUCKET_DOWNLOAD_SECRET_ACCESS_KEY", ""),
		Region:          Env("BUCKET_DOWNLOAD_REGION", ""),
		Name:            Env("BUCKET_DOWNLOAD_NAME", ""),
	}
	if download.Configured() {
		cfg.Download = download
	} else {
		cfg.Download = cfg.Upload
	}

	// Default the publish destination to s3 when credentials are present.
	if cfg.StorageProvider == "" && cfg.Upload.Configured() {
		cfg.StorageProvider = "s3"
	}

	return cfg
}

// EngineBaseURL is the HTTP base URL of the rendering engine.
func (c *Config) EngineBaseURL() string {
	return "http://" + c.EngineHost
}

// EngineWSURL is the websocket URL for a given correlation client id.
func (c *Config) EngineWSURL(clientID string) string {
	return fmt.Sprintf("ws://%s/ws?clientId=%s", c.EngineHost, clientID)
}

// Env reads an env var with a default.
func Env(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

// IntEnv reads an env var as int. If empty or invalid, returns def.
func IntEnv(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// BoolEnv reads an env var as bool. If empty or invalid, returns def.
func BoolEnv(k string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
