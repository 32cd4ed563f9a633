package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BucketStorage persists ingested files on disk, one bucket directory per file
// class. Bucket directories are resolved once at construction; callers never
// read the mapping from ambient state.
type BucketStorage struct {
	baseDir string
	buckets map[string]string
}

// NewBucketStorage ensures the base and bucket directories exist. Bucket values
// are taken relative to baseDir unless absolute.
func NewBucketStorage(baseDir string, buckets map[string]string) (*BucketStorage, error) {
	if baseDir == "" {
		baseDir = "./files"
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage base: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage base: %w", err)
	}

	resolved := make(map[string]string, len(buckets))
	for class, dir := range buckets {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(abs, dir)
		}
		dir = filepath.Clean(dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", class, err)
		}
		resolved[strings.ToLower(class)] = dir
	}

	return &BucketStorage{baseDir: abs, buckets: resolved}, nil
}

// BaseDir exposes the absolute storage root.
func (s *BucketStorage) BaseDir() string {
	return s.baseDir
}

// BucketDir returns the absolute directory for a file class, falling back to
// the "other" bucket when the class is not mapped.
func (s *BucketStorage) BucketDir(class string) (string, error) {
	if dir, ok := s.buckets[strings.ToLower(class)]; ok {
		return dir, nil
	}
	if dir, ok := s.buckets["other"]; ok {
		return dir, nil
	}
	return "", fmt.Errorf("no bucket configured for class %q and no other fallback", class)
}

// SanitizeFileName strips any directory component and rejects traversal
// attempts embedded in the name.
func SanitizeFileName(name string) (string, error) {
	only := filepath.Base(strings.TrimSpace(name))
	if only == "" || only == "." || only == string(filepath.Separator) ||
		strings.Contains(only, "..") || strings.ContainsAny(only, `/\`) {
		return "", fmt.Errorf("illegal file name %q", name)
	}
	return only, nil
}

// SanitizeRelPath normalizes a caller-supplied relative path and rejects
// absolute paths and parent references.
func SanitizeRelPath(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", nil
	}
	normalized := filepath.Clean(filepath.FromSlash(rel))
	if normalized == "." {
		return "", nil
	}
	if filepath.IsAbs(normalized) || strings.HasPrefix(normalized, "..") ||
		strings.Contains(normalized, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal file path %q", rel)
	}
	return normalized, nil
}

// ResolveWithin joins base, rel and name into an absolute path and verifies
// after normalization that the result is still a descendant of base. The check
// runs on the resolved path, not the textual input, so traversal smuggled
// through normalization is caught too.
func ResolveWithin(base, rel, name string) (string, error) {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %s: %w", base, err)
	}
	baseAbs = filepath.Clean(baseAbs)
	target := filepath.Clean(filepath.Join(baseAbs, rel, name))
	if target != baseAbs && !strings.HasPrefix(target, baseAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory", filepath.Join(rel, name))
	}
	return target, nil
}

// WriteStream copies the reader into the target path, creating parent
// directories as needed. Existing content is overwritten.
func WriteStream(target string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("prepare directory for %s: %w", target, err)
	}
	file, err := os.Create(target)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", target, err)
	}
	defer file.Close() //nolint:errcheck
	written, err := io.Copy(file, r)
	if err != nil {
		return 0, fmt.Errorf("write file %s: %w", target, err)
	}
	return written, nil
}

// Sha256File computes the hex-encoded SHA-256 digest of a file on disk.
func Sha256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck
	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FileSize returns the size of a file in bytes.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReplaceExtension swaps the file extension for the given format suffix.
func ReplaceExtension(name, format string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name + "." + format
	}
	return strings.TrimSuffix(name, ext) + "." + format
}
