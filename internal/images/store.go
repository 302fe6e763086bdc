// Package images relays uploaded bytes to the external file store and hands
// back the stable URL. Only the URL string is persisted by this service.
package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"mindforum/internal/core"
)

var ErrUploadFailed = errors.New("image upload failed")

type Store struct {
	Logger *slog.Logger
	Config *core.Config

	client *resty.Client
}

type uploadResponse struct {
	URL string `json:"url"`
}

func (s *Store) Init(_ context.Context) error {
	s.Logger = s.Logger.With("component", "images.Store")

	s.client = resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:       1 * time.Second,
		TLSHandshakeTimeout: 1 * time.Second,
		// Uploads are the one slow call this service makes.
		ResponseHeaderTimeout: 30 * time.Second,
	})
	s.client.SetBaseURL(s.Config.ImageStoreURL)

	return nil
}

func (s *Store) Shutdown(_ context.Context) error {
	return s.client.Close()
}

func (s *Store) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	res, err := s.client.R().
		WithContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(data)).
		SetResult(&uploadResponse{}).
		Post("/v1/images")
	if err != nil {
		return "", err
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, res.Status())
	}

	url := res.Result().(*uploadResponse).URL
	if url == "" {
		return "", ErrUploadFailed
	}

	s.Logger.Debug("image uploaded", "filename", filename, "url", url)

	return url, nil
}
