package delivery

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/assetmail/core/storage"
)

// DefaultLinkTTL is how long presigned links stay valid.
const DefaultLinkTTL = 24 * time.Hour

// IssueLinks presigns one download URL per asset concurrently. Any failure
// aborts the batch; partial link sets are never returned.
func IssueLinks(ctx context.Context, store storage.Storage, metas []AssetMeta, ttl time.Duration, now time.Time) ([]DownloadLink, error) {
	links := make([]DownloadLink, len(metas))
	expiresAt := now.Add(ttl).UTC()

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range metas {
		g.Go(func() error {
			filename := storage.BaseName(m.Key)
			url, err := store.PresignGet(gctx, m.Key, ttl, filename)
			if err != nil {
				return storageError(m.Key, "failed to issue download link", err)
			}
			links[i] = DownloadLink{
				Label:     m.Label,
				Key:       m.Key,
				Filename:  filename,
				URL:       url,
				ExpiresAt: expiresAt,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return links, nil
}
