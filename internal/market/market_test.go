package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testMarkets() []Market {
	return []Market{
		{Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", Active: true},
		{Symbol: "ETH/BTC", Base: "ETH", Quote: "BTC", Active: true},
		{Symbol: "ETH/USDT", Base: "ETH", Quote: "USDT", Active: true},
		{Symbol: "LTC/BTC", Base: "LTC", Quote: "BTC", Active: false},
	}
}

func TestNewCatalog_DerivesIDAndDedupes(t *testing.T) {
	list := append(testMarkets(), Market{Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT"})
	cat := NewCatalog(list)

	assert.Equal(t, 4, cat.Len())

	m, ok := cat.Get("ETH/BTC")
	assert.True(t, ok)
	assert.Equal(t, "ETHBTC", m.ID)
}

func TestCatalog_AllPreservesLoadOrder(t *testing.T) {
	cat := NewCatalog(testMarkets())
	all := cat.All()
	assert.Equal(t, "BTC/USDT", all[0].Symbol)
	assert.Equal(t, "LTC/BTC", all[3].Symbol)
}

func TestCatalog_MatchPairs(t *testing.T) {
	cat := NewCatalog(testMarkets())

	btc := cat.MatchPairs("BTC")
	syms := make([]string, 0, len(btc))
	for _, m := range btc {
		syms = append(syms, m.Symbol)
	}
	assert.ElementsMatch(t, []string{"BTC/USDT", "ETH/BTC", "LTC/BTC"}, syms)

	// Either orientation counts when a counter-currency is given.
	both := cat.MatchPairs("USDT", "ETH")
	assert.Len(t, both, 1)
	assert.Equal(t, "ETH/USDT", both[0].Symbol)

	assert.Empty(t, cat.MatchPairs("DOGE"))
}
