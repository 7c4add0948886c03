package s3_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/assetmail/core/delivery"
	"github.com/dmitrymomot/assetmail/core/storage"
	"github.com/dmitrymomot/assetmail/integration/storage/s3"
)

type fakeObject struct {
	data        []byte
	contentType string
}

type fakeClient struct {
	objects map[string]fakeObject
	err     error
	calls   int
}

func (c *fakeClient) HeadObject(ctx context.Context, in *s3aws.HeadObjectInput, _ ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	out := &s3aws.HeadObjectOutput{ContentLength: aws.Int64(int64(len(obj.data)))}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	return out, nil
}

func (c *fakeClient) GetObject(ctx context.Context, in *s3aws.GetObjectInput, _ ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3aws.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
	}, nil
}

func (c *fakeClient) HeadBucket(ctx context.Context, in *s3aws.HeadBucketInput, _ ...func(*s3aws.Options)) (*s3aws.HeadBucketOutput, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &s3aws.HeadBucketOutput{}, nil
}

type fakePresigner struct {
	lastInput   *s3aws.GetObjectInput
	lastExpires time.Duration
	err         error
}

func (p *fakePresigner) PresignGetObject(ctx context.Context, in *s3aws.GetObjectInput, optFns ...func(*s3aws.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if p.err != nil {
		return nil, p.err
	}
	opts := &s3aws.PresignOptions{}
	for _, fn := range optFns {
		fn(opts)
	}
	p.lastInput = in
	p.lastExpires = opts.Expires

	q := url.Values{}
	q.Set("X-Amz-Expires", opts.Expires.String())
	if in.ResponseContentDisposition != nil {
		q.Set("response-content-disposition", *in.ResponseContentDisposition)
	}
	return &v4.PresignedHTTPRequest{
		URL:    "https://assets.example.com/" + aws.ToString(in.Key) + "?" + q.Encode(),
		Method: "GET",
	}, nil
}

func newStorage(t *testing.T, client *fakeClient, presigner *fakePresigner, opts ...s3.S3Option) *s3.S3Storage {
	t.Helper()
	opts = append(opts, s3.WithS3Client(client), s3.WithPresigner(presigner))
	st, err := s3.New(context.Background(), s3.S3Config{Bucket: "assets", Region: "us-east-1"}, opts...)
	require.NoError(t, err)
	return st
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := s3.New(context.Background(), s3.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)

	_, err = s3.New(context.Background(), s3.S3Config{Bucket: "b", Region: "r"}, s3.WithS3Client(&fakeClient{}))
	assert.ErrorIs(t, err, storage.ErrInvalidConfig, "custom client without presigner")
}

func TestHead(t *testing.T) {
	t.Parallel()

	client := &fakeClient{objects: map[string]fakeObject{
		"users/1/rec.m4a": {data: []byte("audio"), contentType: "audio/mp4"},
		"users/1/tr.txt":  {data: []byte("hello world")},
	}}
	st := newStorage(t, client, &fakePresigner{})
	ctx := context.Background()

	info, err := st.Head(ctx, "/users/1/rec.m4a")
	require.NoError(t, err)
	assert.Equal(t, storage.ObjectInfo{Key: "users/1/rec.m4a", Size: 5, ContentType: "audio/mp4"}, info)

	info, err = st.Head(ctx, "users/1/tr.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(11), info.Size)
	assert.Empty(t, info.ContentType)

	_, err = st.Head(ctx, "users/1/missing.m4a")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	calls := client.calls
	_, err = st.Head(ctx, "users/../etc/passwd")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
	assert.Equal(t, calls, client.calls, "invalid keys never reach S3")
}

func TestResolveMetadata_DottedFilename(t *testing.T) {
	t.Parallel()

	key := "users/u1/meeting..final.m4a"
	client := &fakeClient{objects: map[string]fakeObject{
		key: {data: []byte("audio"), contentType: "audio/mp4"},
	}}
	st := newStorage(t, client, &fakePresigner{})

	require.NoError(t, delivery.KeyPolicy{EnforceTenancy: true}.Validate(key, "u1"))
	metas, err := delivery.ResolveMetadata(context.Background(), st, []delivery.AssetRef{
		{Key: key, Label: delivery.LabelRecording},
	})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, int64(5), metas[0].Size)
}

func TestGet(t *testing.T) {
	t.Parallel()

	client := &fakeClient{objects: map[string]fakeObject{
		"k/small.bin": {data: []byte("0123456789")},
	}}
	ctx := context.Background()

	st := newStorage(t, client, &fakePresigner{})
	data, err := st.Get(ctx, "k/small.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), data)

	_, err = st.Get(ctx, "k/none.bin")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)

	limited := newStorage(t, client, &fakePresigner{}, s3.WithMaxReadSize(4), s3.WithReadTimeout(time.Second))
	_, err = limited.Get(ctx, "k/small.bin")
	assert.ErrorIs(t, err, storage.ErrInvalidObjectState)
}

func TestGet_ClassifiesAPIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "access denied", err: &smithy.GenericAPIError{Code: "AccessDenied"}, want: storage.ErrAccessDenied},
		{name: "slow down", err: &smithy.GenericAPIError{Code: "SlowDown"}, want: storage.ErrServiceUnavailable},
		{name: "no such bucket", err: &types.NoSuchBucket{}, want: storage.ErrBucketNotFound},
		{name: "deadline", err: context.DeadlineExceeded, want: storage.ErrOperationTimeout},
		{name: "canceled", err: context.Canceled, want: storage.ErrOperationCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := newStorage(t, &fakeClient{err: tt.err}, &fakePresigner{})
			_, err := st.Get(context.Background(), "k/a.bin")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPresignGet(t *testing.T) {
	t.Parallel()

	presigner := &fakePresigner{}
	st := newStorage(t, &fakeClient{}, presigner)

	u, err := st.PresignGet(context.Background(), "users/1/rec.m4a", 24*time.Hour, `rec"ord.m4a`)
	require.NoError(t, err)
	assert.Contains(t, u, "https://assets.example.com/users/1/rec.m4a?")

	require.NotNil(t, presigner.lastInput)
	assert.Equal(t, "assets", aws.ToString(presigner.lastInput.Bucket))
	assert.Equal(t, `attachment; filename="rec_ord.m4a"`, aws.ToString(presigner.lastInput.ResponseContentDisposition))
	assert.Equal(t, 24*time.Hour, presigner.lastExpires)

	_, err = st.PresignGet(context.Background(), "users/1/rec.m4a", 0, "")
	assert.ErrorIs(t, err, storage.ErrPresignFailed)

	failing := newStorage(t, &fakeClient{}, &fakePresigner{err: errors.New("signing failed")})
	_, err = failing.PresignGet(context.Background(), "users/1/rec.m4a", time.Hour, "")
	assert.ErrorIs(t, err, storage.ErrPresignFailed)
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `attachment; filename="a.m4a"`, s3.ContentDisposition("a.m4a"))
	assert.Equal(t, `attachment; filename="a_b_c.txt"`, s3.ContentDisposition(`a"b\c.txt`))
	assert.Equal(t, `attachment; filename="x__y"`, s3.ContentDisposition("x\r\ny"))
}

func TestPing(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	st := newStorage(t, client, &fakePresigner{})
	require.NoError(t, st.Ping(context.Background()))

	client.err = &types.NotFound{}
	assert.ErrorIs(t, st.Ping(context.Background()), storage.ErrBucketNotFound)

	client.err = context.DeadlineExceeded
	assert.ErrorIs(t, st.Ping(context.Background()), storage.ErrOperationTimeout)
}
