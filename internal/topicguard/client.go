// Package topicguard talks to the external semantic topic-matching service.
// It is an enrichment, not a correctness-critical dependency: callers treat
// every failure here as ignorable.
package topicguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"resty.dev/v3"

	"mindforum/internal/core"
	"mindforum/pkg/retry"
)

var ErrUnexpectedStatus = errors.New("unexpected topic guard status")

type Client struct {
	Logger *slog.Logger
	Config *core.Config

	client *resty.Client
}

func (c *Client) Init(_ context.Context) error {
	c.Logger = c.Logger.With("component", "topicguard.Client")

	c.client = resty.NewWithTransportSettings(&resty.TransportSettings{
		DialerTimeout:         1 * time.Second,
		DialerKeepAlive:       1 * time.Second,
		IdleConnTimeout:       1 * time.Second,
		TLSHandshakeTimeout:   1 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	})
	c.client.SetBaseURL(c.Config.TopicGuardURL)

	return nil
}

func (c *Client) Shutdown(_ context.Context) error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().WithContext(ctx)
}

// RebuildCentroid replaces the community's topic centroid with one derived
// from texts. Called on every verification transition; the centroid is
// rebuilt from scratch, never updated incrementally. A lost rebuild leaves
// the centroid stale until the next verification, hence the retries.
func (c *Client) RebuildCentroid(ctx context.Context, communityID int64, texts []string) error {
	return retry.Do(ctx, 3, 100*time.Millisecond, func() error {
		res, err := c.r(ctx).
			SetBody(map[string]any{"texts": texts}).
			Put(fmt.Sprintf("/v1/communities/%d/centroid", communityID))
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		}
		return nil
	})
}

// Score rates one candidate text against the community's centroid.
func (c *Client) Score(ctx context.Context, communityID int64, text string) (core.TopicScore, error) {
	res, err := c.r(ctx).
		SetBody(map[string]any{"text": text}).
		SetResult(&core.TopicScore{}).
		Post(fmt.Sprintf("/v1/communities/%d/score", communityID))
	if err != nil {
		return core.TopicScore{}, err
	}
	if res.IsError() {
		return core.TopicScore{}, fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
	}
	return *res.Result().(*core.TopicScore), nil
}
