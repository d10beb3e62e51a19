package storage

import "comfybridge/internal/ports"

// Provider is the storage contract used across the bridge. It is an
// alias to ports.StorageProvider to keep call-sites simple.
type Provider = ports.StorageProvider
