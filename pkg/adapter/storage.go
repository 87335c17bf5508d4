package adapter

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// Storage archives the raw policy and invoice sources that were uploaded for
// an analysis, keyed by the stored invoice record ID. Archival is
// write-through: records in the semantic store do not depend on it.
type Storage interface {
	// Archive writes the source data under the given object key
	Archive(ctx context.Context, key string, r io.Reader) error
	// Open reads back an archived source
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// storageClient implements Storage using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage archive client
func NewStorage(ctx context.Context, bucketName string) (Storage, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &storageClient{
		bucketName: bucketName,
		client:     client,
	}, nil
}

func (s *storageClient) Archive(ctx context.Context, key string, r io.Reader) error {
	obj := s.client.Bucket(s.bucketName).Object(key)
	w := obj.NewWriter(ctx)

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write archive object", goerr.Value("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize archive object", goerr.Value("key", key))
	}

	return nil
}

func (s *storageClient) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj := s.client.Bucket(s.bucketName).Object(key)
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read archive object", goerr.Value("key", key))
	}

	return r, nil
}
