// Package image keeps uploaded item photos in the KV store as data URIs.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
	"github.com/kailas-cloud/lostfound/internal/imagecodec"
)

// PathPrefix is the URL path under which stored images are served.
const PathPrefix = "/images/"

// kvStore is the consumer interface for image blobs (ISP).
type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Store persists image blobs and maps them to public URLs.
type Store struct {
	kv      kvStore
	baseURL string
}

// NewStore creates an image store. baseURL is the public origin of the API.
func NewStore(kv kvStore, baseURL string) *Store {
	return &Store{kv: kv, baseURL: strings.TrimRight(baseURL, "/")}
}

// Save stores blob under id and returns its public URL.
func (s *Store) Save(ctx context.Context, id string, blob imagecodec.Blob) (string, error) {
	if id == "" {
		return "", fmt.Errorf("image id is required")
	}
	if len(blob.Data) == 0 {
		return "", domain.NewEncodingError(errors.New("image is empty"))
	}
	uri := imagecodec.EncodeBytes(blob.Data, blob.ContentType)
	if err := s.kv.Set(ctx, imageKey(id), []byte(uri)); err != nil {
		return "", fmt.Errorf("set image %s: %w", id, err)
	}
	return s.URL(id), nil
}

// Get returns the stored blob.
func (s *Store) Get(ctx context.Context, id string) (imagecodec.Blob, error) {
	uri, err := s.DataURI(ctx, id)
	if err != nil {
		return imagecodec.Blob{}, err
	}
	blob, err := imagecodec.Decode(uri)
	if err != nil {
		return imagecodec.Blob{}, fmt.Errorf("decode image %s: %w", id, err)
	}
	return blob, nil
}

// DataURI returns the stored image as a data URI without decoding it.
func (s *Store) DataURI(ctx context.Context, id string) (string, error) {
	raw, err := s.kv.Get(ctx, imageKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrImageNotFound
		}
		return "", fmt.Errorf("get image %s: %w", id, err)
	}
	return string(raw), nil
}

// Delete removes a stored image. Missing images are not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.kv.Del(ctx, imageKey(id)); err != nil {
		return fmt.Errorf("del image %s: %w", id, err)
	}
	return nil
}

// URL returns the public URL of image id.
func (s *Store) URL(id string) string {
	return s.baseURL + PathPrefix + id
}

// IDFromURL extracts the image id from a URL produced by URL.
// Returns false for URLs that point elsewhere.
func (s *Store) IDFromURL(url string) (string, bool) {
	id, ok := strings.CutPrefix(url, s.baseURL+PathPrefix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func imageKey(id string) string {
	return domain.KeyPrefix + "image:" + id
}
