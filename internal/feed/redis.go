package feed

import (
	"context"
	"strconv"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher mirrors book updates into a Redis stream so dashboards or a
// replaying process can consume the live feed.
type Publisher struct {
	rdb    *redis.Client
	stream string
}

func NewPublisher(cfg config.RedisConfig) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	return &Publisher{rdb: rdb, stream: cfg.Stream}
}

func (p *Publisher) Publish(ctx context.Context, s book.Snapshot) error {
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: 100000,
		Approx: true,
		Values: map[string]interface{}{
			"symbol":   s.Symbol,
			"bid":      s.Bid,
			"bid_size": s.BidSize,
			"ask":      s.Ask,
			"ask_size": s.AskSize,
			"ts_ms":    s.Ts.UnixMilli(),
		},
	}).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }

// Consumer tails the tick stream and applies each entry to a book,
// acting as a feed source for venues without their own transport.
type Consumer struct {
	rdb    *redis.Client
	stream string
	table  *book.Table
	log    *zap.Logger

	// StartID is where tailing begins; "$" (the default) means only
	// entries newer than the consumer's start.
	StartID string
}

func NewConsumer(cfg config.RedisConfig, table *book.Table, log *zap.Logger) *Consumer {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	return &Consumer{rdb: rdb, stream: cfg.Stream, table: table, log: log, StartID: "$"}
}

// Run blocks reading the stream from its current tail until ctx is
// canceled.
func (c *Consumer) Run(ctx context.Context) error {
	lastID := c.StartID
	if lastID == "" {
		lastID = "$"
	}
	for {
		streams, err := c.rdb.XRead(ctx, &redis.XReadArgs{
			Streams: []string{c.stream, lastID},
			Count:   200,
			Block:   time.Second,
		}).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("tick stream read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(200 * time.Millisecond):
			}
			continue
		}
		for _, s := range streams {
			for _, m := range s.Messages {
				lastID = m.ID
				if snap, ok := snapshotFromValues(m.Values); ok {
					c.table.Set(snap)
				}
			}
		}
	}
}

func (c *Consumer) Close() error { return c.rdb.Close() }

func snapshotFromValues(v map[string]interface{}) (book.Snapshot, bool) {
	sym, _ := v["symbol"].(string)
	if sym == "" {
		return book.Snapshot{}, false
	}
	return book.Snapshot{
		Symbol:  sym,
		Bid:     fieldF(v, "bid"),
		BidSize: fieldF(v, "bid_size"),
		Ask:     fieldF(v, "ask"),
		AskSize: fieldF(v, "ask_size"),
		Ts:      time.Now(),
	}, true
}

func fieldF(v map[string]interface{}, key string) float64 {
	s, _ := v[key].(string)
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
