package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// SharedDiskStore serves buckets off a shared directory. Public URLs are
// formed as <publicBase>/<bucket>/<path>; the directory is expected to be
// exposed by the ingress as static content.
type SharedDiskStore struct {
	basepath   string
	publicBase string
}

func NewSharedDisk(basepath, publicBase string) ObjectStore {
	slog.Info("creating new shared disk object store", "basepath", basepath, "public_base", publicBase)
	return &SharedDiskStore{basepath: basepath, publicBase: publicBase}
}

func (s *SharedDiskStore) fullpath(bucket, path string) string {
	return filepath.Join(s.basepath, bucket, path)
}

func (s *SharedDiskStore) publicUrl(bucket, path string) string {
	u, err := url.JoinPath(s.publicBase, bucket, path)
	if err != nil {
		// JoinPath only fails on malformed base urls; fall back to a plain join.
		return fmt.Sprintf("%v/%v/%v", s.publicBase, bucket, path)
	}
	return u
}

func (s *SharedDiskStore) Upload(bucket, path string, data io.Reader) (string, error) {
	fullpath := s.fullpath(bucket, path)

	err := os.MkdirAll(filepath.Dir(fullpath), 0777)
	if err != nil {
		slog.Error("error creating parent directory", "path", fullpath, "error", err)
		return "", fmt.Errorf("error creating parent directory %v: %v", path, err)
	}

	file, err := os.OpenFile(fullpath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		slog.Error("error opening file for writing", "path", fullpath, "error", err)
		return "", fmt.Errorf("error opening file %v: %v", path, err)
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	if err != nil {
		slog.Error("error writing to file", "path", fullpath, "error", err)
		return "", fmt.Errorf("error writing to file %v: %v", path, err)
	}

	return s.publicUrl(bucket, path), nil
}

func (s *SharedDiskStore) Read(bucket, path string) (io.ReadCloser, error) {
	fullpath := s.fullpath(bucket, path)
	file, err := os.Open(fullpath)
	if err != nil {
		slog.Error("error opening file for read", "path", fullpath, "error", err)
		return nil, fmt.Errorf("error reading file %v: %v", path, err)
	}

	return file, nil
}

func (s *SharedDiskStore) Delete(bucket, path string) error {
	fullpath := s.fullpath(bucket, path)
	err := os.RemoveAll(fullpath)
	if err != nil {
		slog.Error("error deleting file", "path", fullpath, "error", err)
		return fmt.Errorf("error deleting file %v: %v", path, err)
	}
	return nil
}

func (s *SharedDiskStore) Exists(bucket, path string) (bool, error) {
	fullpath := s.fullpath(bucket, path)
	_, err := os.Stat(fullpath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	slog.Error("error checking if file exists", "path", fullpath, "error", err)
	return false, fmt.Errorf("error checking if file %v exists: %w", fullpath, err)
}

func (s *SharedDiskStore) Usage() (UsageStats, error) {
	var stat unix.Statfs_t

	err := unix.Statfs(s.basepath, &stat)
	if err != nil {
		slog.Error("error getting disk usage for object store", "path", s.basepath, "error", err)
		return UsageStats{}, fmt.Errorf("error getting disk usage stats: %w", err)
	}

	return UsageStats{
		TotalBytes: stat.Blocks * uint64(stat.Bsize),
		FreeBytes:  stat.Bfree * uint64(stat.Bsize),
	}, nil
}
