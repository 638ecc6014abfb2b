package client

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/fathima-sithara/campus-connect/internal/models"
)

// HintURL returns the websocket address of the push hint channel.
func (c *Client) HintURL() string {
	u := *c.base
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"token": {c.token}}.Encode()
	return u.String()
}

// SubscribeHints delivers server hints to fn until ctx ends, reconnecting
// with backoff when the socket drops. Hints are advisory; missing one only
// delays a view until its next poll.
func (c *Client) SubscribeHints(ctx context.Context, log *zap.Logger, fn func(models.Hint)) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0

	for ctx.Err() == nil {
		err := c.readHints(ctx, fn, b.Reset)
		if ctx.Err() != nil {
			return
		}
		wait := b.NextBackOff()
		log.Debug("hint channel closed, reconnecting", zap.Duration("in", wait), zap.Error(err))
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (c *Client) readHints(ctx context.Context, fn func(models.Hint), connected func()) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.HintURL(), nil)
	if err != nil {
		return err
	}
	connected()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var h models.Hint
		if err := json.Unmarshal(data, &h); err != nil {
			continue
		}
		fn(h)
	}
}
