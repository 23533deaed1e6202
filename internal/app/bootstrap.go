package app

import (
	"fmt"

	"github.com/6ixisgood/tbot/internal/broker"
	"github.com/6ixisgood/tbot/internal/config"
	"github.com/6ixisgood/tbot/internal/strategy"
	"github.com/6ixisgood/tbot/internal/venue"
	"go.uber.org/zap"
)

// Bootstrap constructs every configured venue, then every strategy bound
// to its venue, and hands the set to a Broker. Construction order
// matters: strategies reference venues by name.
func Bootstrap(cfg *config.Config, log *zap.Logger) (*broker.Broker, error) {
	deps := Deps{Cfg: cfg, Log: log}

	venues := make(map[string]venue.Venue, len(cfg.Venues))
	for _, vc := range cfg.Venues {
		factory, ok := venueFactories[vc.Type]
		if !ok {
			return nil, fmt.Errorf("venue %s: unknown type %q", vc.Name, vc.Type)
		}
		v, err := factory(vc, deps)
		if err != nil {
			return nil, fmt.Errorf("venue %s: %w", vc.Name, err)
		}
		venues[vc.Name] = v
		log.Info("venue constructed", zap.String("venue", vc.Name), zap.String("type", vc.Type))
	}

	strategies := make([]strategy.Strategy, 0, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		factory, ok := strategyFactories[sc.Type]
		if !ok {
			return nil, fmt.Errorf("strategy %s: unknown type %q", sc.Name, sc.Type)
		}
		v, ok := venues[sc.Venue]
		if !ok {
			return nil, fmt.Errorf("strategy %s: unknown venue %q", sc.Name, sc.Venue)
		}
		s, err := factory(sc, v, deps)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", sc.Name, err)
		}
		strategies = append(strategies, s)
		log.Info("strategy constructed",
			zap.String("strategy", sc.Name),
			zap.String("type", sc.Type),
			zap.String("venue", sc.Venue),
		)
	}

	return broker.New(strategies, log), nil
}
