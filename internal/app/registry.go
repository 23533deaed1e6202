package app

import (
	"fmt"
	"time"

	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/feed"
	"github.com/6ixisgood/tbot/internal/strategy"
	"github.com/6ixisgood/tbot/internal/venue"
	"github.com/6ixisgood/tbot/internal/venue/binance"
	"github.com/6ixisgood/tbot/internal/venue/paper"
	"go.uber.org/zap"
)

// VenueFactory builds one venue from its config entry. deps carries the
// shared collaborators a factory may need.
type VenueFactory func(cfg config.VenueConfig, deps Deps) (venue.Venue, error)

// StrategyFactory builds one strategy bound to an already-constructed
// venue.
type StrategyFactory func(cfg config.StrategyConfig, v venue.Venue, deps Deps) (strategy.Strategy, error)

// Deps is what the registries have access to at construction time.
type Deps struct {
	Cfg *config.Config
	Log *zap.Logger
}

// Explicit type registries: a config type string maps to a constructor,
// resolved at startup. Unknown types fail construction, not runtime.
var (
	venueFactories = map[string]VenueFactory{
		"binance": newBinanceVenue,
		"paper":   newPaperVenue,
	}
	strategyFactories = map[string]StrategyFactory{
		"arbitrage": newArbitrageStrategy,
	}
)

func newBinanceVenue(cfg config.VenueConfig, deps Deps) (venue.Venue, error) {
	var pub *feed.Publisher
	if deps.Cfg.Redis.Addr != "" {
		pub = feed.NewPublisher(deps.Cfg.Redis)
		deps.Log.Info("tick mirror enabled",
			zap.String("venue", cfg.Name),
			zap.String("stream", deps.Cfg.Redis.Stream),
		)
	}
	return binance.New(cfg.Name, cfg.Options, pub, deps.Log), nil
}

func newPaperVenue(cfg config.VenueConfig, deps Deps) (venue.Venue, error) {
	v, err := paper.New(cfg.Name, cfg.Options, deps.Log)
	if err != nil {
		return nil, err
	}
	switch cfg.Options.Feed {
	case "", "file":
		if cfg.Options.TicksFile != "" {
			v.SetSource(feed.NewReplayer(cfg.Options.TicksFile, v.Book(), time.Millisecond, deps.Log))
		}
	case "redis":
		if deps.Cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("venue %s: feed=redis but no redis addr configured", cfg.Name)
		}
		v.SetSource(feed.NewConsumer(deps.Cfg.Redis, v.Book(), deps.Log))
	default:
		return nil, fmt.Errorf("venue %s: unknown feed %q", cfg.Name, cfg.Options.Feed)
	}
	return v, nil
}

func newArbitrageStrategy(cfg config.StrategyConfig, v venue.Venue, deps Deps) (strategy.Strategy, error) {
	return strategy.NewArbitrage(cfg.Name, v, cfg.Options, deps.Log)
}
