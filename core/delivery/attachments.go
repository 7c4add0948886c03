package delivery

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/assetmail/core/storage"
	"github.com/dmitrymomot/assetmail/pkg/mimemail"
)

// FetchAttachments downloads every asset concurrently and holds the bytes in memory.
func FetchAttachments(ctx context.Context, store storage.Storage, metas []AssetMeta) ([]mimemail.Attachment, error) {
	parts := make([]mimemail.Attachment, len(metas))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metas {
		g.Go(func() error {
			data, err := store.Get(gctx, m.Key)
			if err != nil {
				return storageError(m.Key, "failed to download asset", err)
			}
			parts[i] = mimemail.Attachment{
				Filename:    storage.BaseName(m.Key),
				ContentType: m.ContentType,
				Data:        data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}
