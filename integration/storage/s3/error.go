package s3

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrymomot/assetmail/core/storage"
)

// apiErrorCodes maps S3 error codes to storage sentinels.
// Codes absent here are passed through with the operation name.
var apiErrorCodes = map[string]error{
	"NoSuchKey":          storage.ErrFileNotFound,
	"NotFound":           storage.ErrFileNotFound,
	"NoSuchBucket":       storage.ErrBucketNotFound,
	"AccessDenied":       storage.ErrAccessDenied,
	"Forbidden":          storage.ErrAccessDenied,
	"RequestTimeout":     storage.ErrRequestTimeout,
	"SlowDown":           storage.ErrServiceUnavailable,
	"ServiceUnavailable": storage.ErrServiceUnavailable,
	"InvalidObjectState": storage.ErrInvalidObjectState,
}

// classifyS3Error converts an SDK error for key into a storage sentinel so
// callers can branch with errors.Is without importing the SDK.
func classifyS3Error(err error, operation, key string) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s %s", storage.ErrOperationTimeout, operation, key)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s %s", storage.ErrOperationCanceled, operation, key)
	}

	// HeadObject carries no body, so a miss is a bare NotFound rather than NoSuchKey.
	var (
		nsk *types.NoSuchKey
		nf  *types.NotFound
		nsb *types.NoSuchBucket
	)
	switch {
	case errors.As(err, &nsk), errors.As(err, &nf):
		return fmt.Errorf("%w: %s", storage.ErrFileNotFound, key)
	case errors.As(err, &nsb):
		return storage.ErrBucketNotFound
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if sentinel, ok := apiErrorCodes[apiErr.ErrorCode()]; ok {
			if sentinel == storage.ErrBucketNotFound {
				return sentinel
			}
			return fmt.Errorf("%w: %s %s", sentinel, operation, key)
		}
		return fmt.Errorf("%s %s failed (code: %s): %w", operation, key, apiErr.ErrorCode(), err)
	}

	return fmt.Errorf("%s %s failed: %w", operation, key, err)
}

// ContentDisposition renders an attachment disposition with a quoted filename.
// Quotes, backslashes and control characters are replaced so the value stays a single header token.
func ContentDisposition(filename string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return '_'
		default:
			return r
		}
	}, filename)
	return `attachment; filename="` + safe + `"`
}
