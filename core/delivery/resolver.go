package delivery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/assetmail/core/storage"
)

// DefaultContentType is used when neither storage nor the extension gives a type.
const DefaultContentType = "application/octet-stream"

var extensionContentTypes = map[string]string{
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".txt":  "text/plain;charset=UTF-8",
	".json": "application/json",
}

// InferContentType maps a key's extension to a content type.
func InferContentType(key string) string {
	if ct, ok := extensionContentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return DefaultContentType
}

// ResolveMetadata probes every ref concurrently. The first failure cancels the
// remaining probes; a missing object fails the whole batch with KindAssetNotFound.
// The result preserves the order of refs.
func ResolveMetadata(ctx context.Context, store storage.Storage, refs []AssetRef) ([]AssetMeta, error) {
	metas := make([]AssetMeta, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			info, err := store.Head(gctx, ref.Key)
			if err != nil {
				return storageError(ref.Key, "failed to read metadata", err)
			}

			contentType := info.ContentType
			if contentType == "" {
				contentType = InferContentType(ref.Key)
			}
			metas[i] = AssetMeta{
				Key:         ref.Key,
				Label:       ref.Label,
				Size:        info.Size,
				ContentType: contentType,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return metas, nil
}

func storageError(key, action string, err error) *Error {
	switch {
	case errors.Is(err, storage.ErrFileNotFound):
		return newError(KindAssetNotFound, fmt.Sprintf("asset %q not found", key), err)
	case errors.Is(err, storage.ErrInvalidPath):
		return newError(KindInvalidKey, fmt.Sprintf("invalid key %q", key), err)
	}
	return newError(KindInternal, fmt.Sprintf("%s for %q", action, key), err)
}
