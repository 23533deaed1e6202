package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/6ixisgood/tbot/internal/book"
	"go.uber.org/zap"
)

// tick is one recorded bookTicker line, in the exchange stream's wire
// shape: symbol, best ask/bid with sizes, all prices as strings.
type tick struct {
	Symbol  string `json:"s"`
	Bid     string `json:"b"`
	BidSize string `json:"B"`
	Ask     string `json:"a"`
	AskSize string `json:"A"`
}

// Replayer feeds recorded ticks into a book at a fixed pace, standing in
// for a live stream during backtests and tests.
type Replayer struct {
	path  string
	table *book.Table
	delay time.Duration
	log   *zap.Logger
}

func NewReplayer(path string, table *book.Table, delay time.Duration, log *zap.Logger) *Replayer {
	return &Replayer{path: path, table: table, delay: delay, log: log}
}

// Run replays the file line by line until EOF or cancellation. Malformed
// lines are skipped, not fatal: recordings commonly end mid-line.
func (r *Replayer) Run(ctx context.Context) error {
	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.replay(ctx, f)
}

func (r *Replayer) replay(ctx context.Context, src io.Reader) error {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var t tick
		if err := json.Unmarshal(sc.Bytes(), &t); err != nil || t.Symbol == "" {
			continue
		}
		r.table.Set(snapshotFromTick(t))
		n++
		if r.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.delay):
			}
		}
	}
	r.log.Info("replay finished", zap.String("file", r.path), zap.Int("ticks", n))
	return sc.Err()
}

func snapshotFromTick(t tick) book.Snapshot {
	return book.Snapshot{
		Symbol:  t.Symbol,
		Bid:     parseF(t.Bid),
		BidSize: parseF(t.BidSize),
		Ask:     parseF(t.Ask),
		AskSize: parseF(t.AskSize),
		Ts:      time.Now(),
	}
}

func parseF(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
