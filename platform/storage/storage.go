package storage

import "io"

type UsageStats struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// ObjectStore is the binary object storage collaborator: uploaded files
// (profile photos, shipment vouchers, production log images) become publicly
// addressable URLs.
type ObjectStore interface {
	// Upload stores the object and returns its public URL.
	Upload(bucket, path string, data io.Reader) (string, error)

	Read(bucket, path string) (io.ReadCloser, error)

	Delete(bucket, path string) error

	Exists(bucket, path string) (bool, error)

	Usage() (UsageStats, error)
}
