// Package imagecodec converts image blobs to and from inline data URIs.
package imagecodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

const (
	dataPrefix   = "data:"
	base64Marker = ";base64,"
	fallbackMIME = "application/octet-stream"
)

// Blob is a decoded image with its media type.
type Blob struct {
	ContentType string
	Data        []byte
}

// Encode reads r once and returns a data URI embedding its full content.
// The media type is sniffed from the bytes. Read failures and empty input
// are reported as *domain.EncodingError.
func Encode(r io.Reader) (string, error) {
	if r == nil {
		return "", domain.NewEncodingError(errors.New("no image supplied"))
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", domain.NewEncodingError(fmt.Errorf("read image: %w", err))
	}
	if len(data) == 0 {
		return "", domain.NewEncodingError(errors.New("image is empty"))
	}
	return EncodeBytes(data, ""), nil
}

// EncodeBytes returns a data URI for data. An empty contentType is sniffed.
func EncodeBytes(data []byte, contentType string) string {
	if contentType == "" {
		contentType = Sniff(data)
	}
	var sb strings.Builder
	sb.Grow(len(dataPrefix) + len(contentType) + len(base64Marker) + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString(dataPrefix)
	sb.WriteString(contentType)
	sb.WriteString(base64Marker)
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}

// Decode parses a base64 data URI back into bytes and media type.
func Decode(uri string) (Blob, error) {
	rest, ok := strings.CutPrefix(uri, dataPrefix)
	if !ok {
		return Blob{}, domain.NewEncodingError(errors.New("not a data URI"))
	}
	contentType, payload, ok := strings.Cut(rest, base64Marker)
	if !ok {
		return Blob{}, domain.NewEncodingError(errors.New("data URI is not base64 encoded"))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Blob{}, domain.NewEncodingError(fmt.Errorf("decode base64: %w", err))
	}
	if contentType == "" {
		contentType = fallbackMIME
	}
	return Blob{ContentType: contentType, Data: data}, nil
}

// Sniff returns the media type of data, or application/octet-stream.
func Sniff(data []byte) string {
	ct := http.DetectContentType(data)
	if ct == "" {
		return fallbackMIME
	}
	// DetectContentType may append parameters (e.g. "; charset=utf-8").
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

// IsImage reports whether contentType is an image media type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
