// Command arbiq is the cross-venue arbitrage engine's process entry
// point (spec §6): load config, wire the order book manager, venue
// registry, strategy, and execution manager, bring every venue client up,
// and serve the read-only monitoring API until a shutdown signal arrives.
// Grounded on cmd/master/main.go's flag-parse/load-config/wire/serve/
// wait-for-shutdown shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/brightpool/arbiq/internal/config"
	"github.com/brightpool/arbiq/internal/exchange"
	"github.com/brightpool/arbiq/internal/execution"
	"github.com/brightpool/arbiq/internal/monitor"
	"github.com/brightpool/arbiq/internal/orderbook"
	"github.com/brightpool/arbiq/internal/pair"
	"github.com/brightpool/arbiq/internal/registry"
	"github.com/brightpool/arbiq/internal/strategy"
	"github.com/brightpool/arbiq/internal/timer"
	"github.com/brightpool/arbiq/internal/venue"
	"github.com/brightpool/arbiq/pkg/eventbus/inprocbus"
	"github.com/brightpool/arbiq/pkg/log"
	"github.com/brightpool/arbiq/pkg/shutdown"
	"github.com/brightpool/arbiq/pkg/telemetry"
	"github.com/shopspring/decimal"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "c", "config/arbiq.json", "Configuration file path")
	flag.Parse()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(log.WithLevel(parseLevel(cfg.LogLevel)))

	venuePairs, err := cfg.VenuePairs()
	if err != nil {
		logger.Fatal("invalid venue/pair configuration", log.Err(err))
	}

	allPairs := uniquePairs(venuePairs)
	allVenues := make([]venue.ID, 0, len(venuePairs))
	for v := range venuePairs {
		allVenues = append(allVenues, v)
	}

	books := orderbook.NewManager(allVenues, allPairs, 50)
	timers := timer.NewService(logger)

	signers := signersByVenue(cfg)
	reg, err := registry.NewRegistry(venuePairs, books, timers, func(v venue.ID) exchange.Signer {
		if s, ok := signers[v]; ok {
			return s
		}
		return exchange.NoopSigner{}
	}, logger)
	if err != nil {
		logger.Fatal("failed to build venue registry", log.Err(err))
	}

	bus := inprocbus.NewEventBus()

	var telemetryPub *telemetry.Publisher
	var unsubTelemetry func()
	if cfg.NATS.URIs != "" {
		telemetryPub, err = telemetry.NewPublisher(cfg.NATS.GetNATSURIs(), cfg.NATS.OpportunitySubject, cfg.NATS.OrderSubject, logger)
		if err != nil {
			logger.Error("telemetry publisher disabled: failed to connect", log.Err(err))
			telemetryPub = nil
		} else if unsubTelemetry, err = telemetryPub.Subscribe(bus); err != nil {
			logger.Error("telemetry publisher disabled: failed to subscribe to event bus", log.Err(err))
			telemetryPub.Close()
			telemetryPub = nil
		}
	}

	execCfg := execution.Config{
		OpportunityTimeout:       cfg.Execution.OpportunityTimeout(),
		SimulationMode:           cfg.Execution.SimulationMode,
		SimulatedFillProbability: cfg.Execution.SimulatedFillProbability,
		SimulatedFillDelay:       cfg.Execution.SimulatedFillDelay(),
	}
	exec := execution.New(execCfg, timers, reg, logger)
	exec.SetEventBus(bus)

	stratCfg := strategy.Config{
		MinTraceableMargin:    mustDecimal(cfg.Strategy.MinTraceableMargin),
		MinExecutionMargin:    mustDecimal(cfg.Strategy.MinExecutionMargin),
		BestSeenResetInterval: cfg.Strategy.BestSeenResetInterval(),
		FullScanInterval:      cfg.Strategy.FullScanInterval(),
	}
	strat := strategy.New(stratCfg, allVenues, allPairs, books, timers, exec, logger)

	mon := monitor.New(cfg.Monitor.ListenAddr, books, exec, logger)

	sh := shutdown.NewShutdown(logger)

	sh.HookShutdownCallback("venues", func() {
		reg.DisconnectAll()
	}, 5*time.Second)

	if telemetryPub != nil {
		sh.HookShutdownCallback("telemetry", func() {
			if unsubTelemetry != nil {
				unsubTelemetry()
			}
			telemetryPub.Close()
		}, 2*time.Second)
	}

	sh.HookShutdownCallback("timers", func() {
		timers.Close()
	}, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := reg.ConnectAll(ctx); err != nil {
		logger.Error("one or more venues failed to connect", log.Err(err))
	}

	strat.Start()

	go func() {
		if err := mon.Run(); err != nil {
			logger.Error("monitor server stopped", log.Err(err))
		}
	}()

	logger.Info("arbiq started",
		log.Int("venues", len(allVenues)),
		log.Int("pairs", len(allPairs)))

	sh.WaitForShutdown(syscall.SIGINT, syscall.SIGTERM)
}

func parseLevel(s string) log.Level {
	switch s {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}

// signersByVenue builds one HMACSigner per venue carrying non-empty
// credentials. Venues left in simulation mode (or with no credentials
// configured) fall back to exchange.NoopSigner{} in the registry's
// signerFor closure.
func signersByVenue(cfg *config.Config) map[venue.ID]exchange.Signer {
	out := make(map[venue.ID]exchange.Signer)
	for _, vc := range cfg.Venues {
		if vc.Simulation || vc.APIKey == "" {
			continue
		}
		v, ok := venue.Parse(vc.Venue)
		if !ok {
			continue
		}
		out[v] = exchange.HMACSigner{APIKey: vc.APIKey, APISecret: vc.APISecret}
	}
	return out
}

func uniquePairs(venuePairs map[venue.ID][]pair.ID) []pair.ID {
	seen := make(map[pair.ID]bool)
	var out []pair.ID
	for _, pairs := range venuePairs {
		for _, p := range pairs {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// mustDecimal parses a config-supplied margin string. config.Validate
// already rejected malformed margins before LoadConfig returned, so this
// can only fail here if that check regresses.
func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
