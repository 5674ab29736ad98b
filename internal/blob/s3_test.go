package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// fakeS3 implements S3Client over an in-memory map.
type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*params.Key]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "no such key"}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(string(data)))}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*params.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *params.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3(client, "audiobooks", "v1")

	ref, err := store.Put(ctx, "owner-1", "book-1", "rendition.mp3", []byte("audio"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if ref != "owner-1/book-1/rendition.mp3" {
		t.Fatalf("unexpected ref %q", ref)
	}
	if _, ok := client.objects["v1/owner-1/book-1/rendition.mp3"]; !ok {
		t.Fatal("expected object stored under prefixed key")
	}

	data, err := store.Get(ctx, ref)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "audio" {
		t.Fatalf("unexpected data %q", data)
	}

	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, ref); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestS3StoreNoPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	store := NewS3(client, "audiobooks", "")

	ref, err := store.Put(ctx, "owner-1", "book-1", "page_0001.png", []byte("img"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, ok := client.objects[string(ref)]; !ok {
		t.Fatal("expected object stored under bare key")
	}
}

func TestS3StorePutError(t *testing.T) {
	ctx := context.Background()
	client := newFakeS3()
	client.putErr = errors.New("boom")
	store := NewS3(client, "audiobooks", "")

	if _, err := store.Put(ctx, "owner-1", "book-1", "a.png", []byte("x")); err == nil {
		t.Fatal("expected put error to propagate")
	}
}
