package feed

import (
	"context"
	"testing"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func redisCfg(t *testing.T) (config.RedisConfig, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return config.RedisConfig{Addr: mr.Addr(), Stream: "book:stream"}, mr
}

func TestPublisher_Publish(t *testing.T) {
	cfg, mr := redisCfg(t)
	p := NewPublisher(cfg)
	defer p.Close()

	require.NoError(t, p.Publish(context.Background(), book.Snapshot{
		Symbol: "BTCUSDT", Bid: 49990, BidSize: 1.5, Ask: 50000, AskSize: 2, Ts: time.Now(),
	}))

	entries, err := mr.Stream("book:stream")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestConsumer_AppliesStreamToBook(t *testing.T) {
	cfg, _ := redisCfg(t)

	p := NewPublisher(cfg)
	defer p.Close()
	require.NoError(t, p.Publish(context.Background(), book.Snapshot{
		Symbol: "BTCUSDT", Bid: 49990, Ask: 50000, Ts: time.Now(),
	}))
	require.NoError(t, p.Publish(context.Background(), book.Snapshot{
		Symbol: "ETHUSDT", Bid: 3500, Ask: 3510, Ts: time.Now(),
	}))

	table := book.NewTable()
	c := NewConsumer(cfg, table, zap.NewNop())
	defer c.Close()
	c.StartID = "0" // read from the beginning, not the tail

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		return table.Len() == 2
	}, 2*time.Second, 10*time.Millisecond)

	snap, ok := table.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 49990.0, snap.Bid)
	assert.Equal(t, 50000.0, snap.Ask)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on cancellation")
	}
}
