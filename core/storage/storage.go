package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

// Storage errors. Backends wrap these so callers can classify failures with errors.Is.
var (
	ErrFileNotFound       = errors.New("file not found")
	ErrBucketNotFound     = errors.New("bucket not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidPath        = errors.New("invalid path")
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrOperationTimeout   = errors.New("storage operation timed out")
	ErrOperationCanceled  = errors.New("storage operation canceled")
	ErrRequestTimeout     = errors.New("storage request timeout")
	ErrServiceUnavailable = errors.New("storage service unavailable")
	ErrInvalidObjectState = errors.New("invalid object state")
	ErrPresignFailed      = errors.New("failed to presign url")
)

// ObjectInfo is the metadata returned by a head probe.
// ContentType is empty when the backend has none recorded.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// Storage is the narrow capability set needed to deliver stored assets:
// probe metadata, read full content, and issue time-limited download URLs.
type Storage interface {
	// Head returns metadata for key or an error wrapping ErrFileNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)
	// Get returns the full object content.
	Get(ctx context.Context, key string) ([]byte, error)
	// PresignGet returns a URL valid for ttl. When downloadName is not empty
	// the URL instructs browsers to save the response under that name.
	PresignGet(ctx context.Context, key string, ttl time.Duration, downloadName string) (string, error)
}

// CleanKey normalizes an object key and rejects traversal attempts.
// Dots inside a segment ("meeting..final.m4a") are legal.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || HasTraversal(key) {
		return "", ErrInvalidPath
	}
	return key, nil
}

// HasTraversal reports whether any "/"-separated segment of key is "..".
func HasTraversal(key string) bool {
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// BaseName returns the final path segment of an object key.
func BaseName(key string) string {
	key = strings.TrimSuffix(key, "/")
	if key == "" {
		return ""
	}
	return path.Base(key)
}
