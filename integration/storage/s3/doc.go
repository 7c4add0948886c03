// Package s3 provides the Amazon S3 and S3-compatible implementation of
// storage.Storage using the AWS SDK v2.
//
// Basic usage:
//
//	store, err := s3.New(ctx, s3.S3Config{
//		Bucket: "assets",
//		Region: "us-east-1",
//	})
//	if err != nil {
//		return err
//	}
//
//	info, err := store.Head(ctx, "users/42/recording.m4a")
//	url, err := store.PresignGet(ctx, info.Key, 24*time.Hour, "recording.m4a")
//
// MinIO and other S3-compatible services:
//
//	cfg := s3.S3Config{
//		Bucket:         "assets",
//		Region:         "us-east-1",
//		AccessKeyID:    "minioadmin",
//		SecretKey:      "minioadmin",
//		Endpoint:       "http://localhost:9000",
//		ForcePathStyle: true,
//	}
//
// Tests inject fakes with WithS3Client and WithPresigner.
package s3
