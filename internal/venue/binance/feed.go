package binance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/metrics"
	"github.com/6ixisgood/tbot/internal/venue"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// bookTickerEvent is one update from the combined !bookTicker stream.
type bookTickerEvent struct {
	Symbol  string `json:"s"`
	Bid     string `json:"b"`
	BidSize string `json:"B"`
	Ask     string `json:"a"`
	AskSize string `json:"A"`
}

// RunFeed maintains the websocket bookTicker subscription, applying each
// update to the price table until ctx is canceled. Dropped connections
// are redialed with a short backoff; the stale table entries simply get
// overwritten once the stream resumes.
func (v *Venue) RunFeed(ctx context.Context) error {
	for {
		err := v.streamOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v.log.Warn("book ticker stream dropped; reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (v *Venue) streamOnce(ctx context.Context) error {
	dialer := &websocket.Dialer{HandshakeTimeout: 15 * time.Second, EnableCompression: true}
	conn, _, err := dialer.DialContext(ctx, v.opt.WsURL, nil)
	if err != nil {
		return venue.E(venue.KindNetwork, "feed", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	})

	// Close the socket on cancellation so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	go func() {
		t := time.NewTicker(20 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}()

	v.log.Info("book ticker stream connected", zap.String("url", v.opt.WsURL))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return venue.E(venue.KindNetwork, "feed", err)
		}
		var ev bookTickerEvent
		if err := json.Unmarshal(msg, &ev); err != nil || ev.Symbol == "" {
			continue
		}
		snap := book.Snapshot{
			Symbol:  ev.Symbol,
			Bid:     parseF(ev.Bid),
			BidSize: parseF(ev.BidSize),
			Ask:     parseF(ev.Ask),
			AskSize: parseF(ev.AskSize),
			Ts:      time.Now(),
		}
		v.table.Set(snap)
		metrics.BookUpdates.WithLabelValues(v.name).Inc()
		if v.pub != nil {
			if err := v.pub.Publish(ctx, snap); err != nil && ctx.Err() == nil {
				v.log.Debug("tick mirror publish failed", zap.Error(err))
			}
		}
	}
}
