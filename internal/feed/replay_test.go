package feed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/6ixisgood/tbot/internal/book"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const recording = `{"u":1,"s":"BTCUSDT","b":"49990.00","B":"1.5","a":"50000.00","A":"2.0"}
{"u":2,"s":"ETHUSDT","b":"3500.00","B":"10","a":"3510.00","A":"8"}
not json
{"u":3,"s":"BTCUSDT","b":"49995.00","B":"1.0","a":"50005.00","A":"1.0"}
`

func TestReplayer_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0o644))

	table := book.NewTable()
	r := NewReplayer(path, table, 0, zap.NewNop())
	require.NoError(t, r.Run(context.Background()))

	// Later ticks overwrite earlier ones; malformed lines are skipped.
	snap, ok := table.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 49995.0, snap.Bid)
	assert.Equal(t, 50005.0, snap.Ask)
	assert.Equal(t, 1.0, snap.AskSize)

	snap, ok = table.Get("ETHUSDT")
	require.True(t, ok)
	assert.Equal(t, 3500.0, snap.Bid)
	assert.Equal(t, 2, table.Len())
}

func TestReplayer_MissingFile(t *testing.T) {
	r := NewReplayer("does-not-exist.jsonl", book.NewTable(), 0, zap.NewNop())
	assert.Error(t, r.Run(context.Background()))
}

func TestReplayer_Canceled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticks.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(recording), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReplayer(path, book.NewTable(), 0, zap.NewNop())
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}
