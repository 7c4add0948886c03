// Package storage defines the object storage capability consumed by asset
// delivery: metadata probes, full reads, and presigned download URLs.
//
// Implementations live under integration/storage. Errors returned by an
// implementation wrap the sentinels declared here:
//
//	info, err := store.Head(ctx, "users/42/recording.m4a")
//	if errors.Is(err, storage.ErrFileNotFound) {
//		// asset is gone
//	}
package storage
