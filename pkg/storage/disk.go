// Package storage is a small filesystem abstraction with a local driver and
// an S3-compatible driver (AWS S3, MinIO, R2).
//
//	storage.Connect()
//	disk, _ := storage.Default()
//	disk.Put(ctx, "exports/pedidos-2026-03-02.csv", data)
//	url := disk.URL("exports/pedidos-2026-03-02.csv")
//
// The default disk is chosen by STORAGE_DISK ("local" or "s3").
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/multidelivery/painel/config"
	"github.com/multidelivery/painel/pkg/logger"
)

// Disk is implemented by every driver.
type Disk interface {
	Put(ctx context.Context, path string, content []byte) error
	PutStream(ctx context.Context, path string, r io.Reader) error
	Get(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	// Files lists the files directly inside directory, sorted.
	Files(ctx context.Context, directory string) ([]string, error)
	// URL returns the public URL for path.
	URL(path string) string
}

var (
	mu          sync.RWMutex
	disks       = map[string]Disk{}
	defaultName = "local"
)

// Connect registers the local disk and, when S3_BUCKET is set, the s3 disk.
func Connect() {
	mu.Lock()
	defer mu.Unlock()

	defaultName = config.StorageDefault()
	disks["local"] = NewLocal(config.StorageLocalRoot(), config.StorageURL())

	if config.StorageS3Bucket() == "" {
		return
	}
	d, err := NewS3(context.Background(), S3Config{
		Bucket:   config.StorageS3Bucket(),
		Region:   config.StorageS3Region(),
		Key:      config.StorageS3Key(),
		Secret:   config.StorageS3Secret(),
		Endpoint: config.StorageS3Endpoint(),
		BaseURL:  config.StorageS3URL(),
	})
	if err != nil {
		logger.Warn("storage: s3 disk disabled", "error", err)
		return
	}
	disks["s3"] = d
}

// Register plugs in a disk under name.
func Register(name string, d Disk) {
	mu.Lock()
	disks[name] = d
	mu.Unlock()
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the disk named by STORAGE_DISK.
func Default() (Disk, error) {
	mu.RLock()
	name := defaultName
	mu.RUnlock()
	return Use(name)
}

func sorted(names []string) []string {
	sort.Strings(names)
	if names == nil {
		return []string{}
	}
	return names
}
