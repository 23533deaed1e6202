package book

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Snapshot is the current best bid/ask for one symbol. The feed loop
// replaces the whole record on every update, so a reader always sees
// bid, ask and sizes from the same tick.
type Snapshot struct {
	Symbol  string
	Ask     float64
	AskSize float64
	Bid     float64
	BidSize float64
	Ts      time.Time
}

// Table maps symbol -> latest Snapshot. Written by the feed goroutine,
// read by the scan loop.
type Table struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewTable() *Table {
	return &Table{snaps: make(map[string]Snapshot, 256)}
}

func (t *Table) Set(s Snapshot) {
	t.mu.Lock()
	t.snaps[s.Symbol] = s
	t.mu.Unlock()
}

// Get returns a copy of the latest snapshot for symbol.
func (t *Table) Get(symbol string) (Snapshot, bool) {
	t.mu.RLock()
	s, ok := t.snaps[symbol]
	t.mu.RUnlock()
	return s, ok
}

func (t *Table) Has(symbol string) bool {
	t.mu.RLock()
	_, ok := t.snaps[symbol]
	t.mu.RUnlock()
	return ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	n := len(t.snaps)
	t.mu.RUnlock()
	return n
}

// BestBidAsk returns the current bid/ask, erroring on an empty or
// degenerate book entry.
func (t *Table) BestBidAsk(symbol string) (bid, ask float64, err error) {
	s, ok := t.Get(symbol)
	if !ok || s.Bid == 0 || s.Ask == 0 {
		return 0, 0, fmt.Errorf("empty book for %s", symbol)
	}
	return s.Bid, s.Ask, nil
}

// WaitReady blocks until the table holds a snapshot for every symbol, the
// timeout elapses, or ctx is canceled. It returns the symbols still
// missing at timeout, sorted; nil means the book is fully warm.
func WaitReady(ctx context.Context, t *Table, symbols []string, timeout time.Duration, log *zap.Logger) []string {
	deadline := time.Now().Add(timeout)
	missing := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		missing[s] = struct{}{}
	}
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		for s := range missing {
			if t.Has(s) {
				delete(missing, s)
			}
		}
		if len(missing) == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			out := make([]string, 0, len(missing))
			for s := range missing {
				out = append(out, s)
			}
			sort.Strings(out)
			log.Debug("book warm-up incomplete", zap.Strings("missing", out))
			return out
		}
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}
	}
}
