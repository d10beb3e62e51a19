package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"comfybridge/internal/adapters/storage/gdrive"
	"comfybridge/internal/adapters/storage/localfs"
	"comfybridge/internal/adapters/storage/s3"
	"comfybridge/internal/config"
)

// NewPublishProvider builds the provider artifacts are published to.
// A nil provider (with nil error) means no destination is configured and
// artifacts are returned inline.
func NewPublishProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "":
		return nil, nil

	case "s3":
		return s3.New(ctx, cfg.Upload)

	case "localfs":
		return localfs.New(cfg.LocalRoot), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.StorageProvider)
	}
}

// NewDownloadProvider builds the provider used to resolve
// object_store_key inputs, or nil when no credentials are configured.
func NewDownloadProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	if !cfg.Download.Configured() {
		return nil, nil
	}
	return s3.New(ctx, cfg.Download)
}

func newGDriveProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg.GDriveClientID == "" || cfg.GDriveClientSecret == "" || cfg.GDriveRefreshToken == "" {
		return nil, fmt.Errorf("gdrive provider requires GDRIVE_CLIENT_ID, GDRIVE_CLIENT_SECRET and GDRIVE_REFRESH_TOKEN")
	}

	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}
