package delivery_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/assetmail/core/email"
	"github.com/dmitrymomot/assetmail/core/storage"
)

type object struct {
	data        []byte
	size        int64 // overrides len(data) for head probes when set
	contentType string
}

type fakeStorage struct {
	mu       sync.Mutex
	objects  map[string]object
	heads    []string
	gets     []string
	presigns []string
	headErr  error
	getErr   error
	signErr  error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string]object{}}
}

func (f *fakeStorage) put(key string, o object) *fakeStorage {
	f.objects[key] = o
	return f
}

func (f *fakeStorage) Head(ctx context.Context, key string) (storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads = append(f.heads, key)

	if f.headErr != nil {
		return storage.ObjectInfo{}, f.headErr
	}
	o, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, fmt.Errorf("%w: %s", storage.ErrFileNotFound, key)
	}
	size := o.size
	if size == 0 {
		size = int64(len(o.data))
	}
	return storage.ObjectInfo{Key: key, Size: size, ContentType: o.contentType}, nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, key)

	if f.getErr != nil {
		return nil, f.getErr
	}
	o, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrFileNotFound, key)
	}
	return o.data, nil
}

func (f *fakeStorage) PresignGet(ctx context.Context, key string, ttl time.Duration, downloadName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presigns = append(f.presigns, key)

	if f.signErr != nil {
		return "", f.signErr
	}
	return fmt.Sprintf("https://bucket.example.com/%s?ttl=%d&name=%s", key, int(ttl.Seconds()), downloadName), nil
}

func (f *fakeStorage) calls() (heads, gets, presigns int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.heads), len(f.gets), len(f.presigns)
}

type fakeSink struct {
	mu   sync.Mutex
	raw  []email.RawEmailParams
	sent []email.SendEmailParams
	err  error
}

func (f *fakeSink) SendEmail(ctx context.Context, p email.SendEmailParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, p)
	return "msg-structured", nil
}

func (f *fakeSink) SendRawEmail(ctx context.Context, p email.RawEmailParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.raw = append(f.raw, p)
	return "msg-raw", nil
}

var errProvider = errors.New("provider unavailable")
