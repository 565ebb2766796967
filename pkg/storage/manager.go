package storage

import (
	"fmt"
	"sync"

	"github.com/perennia/storefront/config"
	"github.com/perennia/storefront/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the configured disks. The local disk always exists; S3 is
// added when a bucket is configured and falls back to local on error.
func Connect() {
	local := NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	RegisterDisk("local", local)

	name := config.StorageDefault()
	if bucket := config.StorageS3Bucket(); bucket != "" {
		d, err := NewS3Disk(S3Config{
			Bucket:   bucket,
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
			BaseURL:  config.StorageS3URL(),
		})
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			RegisterDisk("s3", d)
		}
	}

	managerMu.Lock()
	if _, ok := disks[name]; ok {
		defaultDisk = name
	} else {
		logger.Warn("storage: unknown default disk, using local", "disk", name)
		defaultDisk = "local"
	}
	managerMu.Unlock()
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	managerMu.RLock()
	defer managerMu.RUnlock()
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the default disk, booting the local one on first use.
func Default() Disk {
	managerMu.RLock()
	d, ok := disks[defaultDisk]
	managerMu.RUnlock()
	if ok {
		return d
	}

	managerMu.Lock()
	defer managerMu.Unlock()
	if d, ok := disks[defaultDisk]; ok {
		return d
	}
	local := NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	disks["local"] = local
	defaultDisk = "local"
	return local
}

// RegisterDisk plugs in a Disk under name.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}

// SetDefault makes name the default disk. Tests use it with RegisterDisk.
func SetDefault(name string) {
	managerMu.Lock()
	defaultDisk = name
	managerMu.Unlock()
}
