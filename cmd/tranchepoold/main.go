package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"tranchepool/config"
	"tranchepool/core/types"
	"tranchepool/gateway"
	"tranchepool/native/calendar"
	"tranchepool/native/pool"
	"tranchepool/native/registry"
	"tranchepool/native/safe"
	"tranchepool/native/tranche"
	"tranchepool/observability/logging"
	"tranchepool/observability/metrics"
	"tranchepool/state"
	"tranchepool/storage"
)

// zeroFeeReserve stands in for the external fee manager until one is wired.
type zeroFeeReserve struct{}

func (zeroFeeReserve) TotalAvailableFees() (*big.Int, error) { return big.NewInt(0), nil }

func main() {
	configPath := flag.String("config", "./config.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load configuration", "error", err)
		os.Exit(1)
	}

	log := logging.Setup("tranchepoold", cfg.Environment)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "pool"))
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	reg, err := registry.New("primary", cfg.Owner(), cfg.RegistryAddresses(), cfg.RegistryParams())
	if err != nil {
		log.Error("build registry", "error", err)
		os.Exit(1)
	}

	events := types.EmitterFunc(func(evt *types.Event) {
		attrs := make([]any, 0, len(evt.Attributes)*2)
		for key, value := range evt.Attributes {
			attrs = append(attrs, key, value)
		}
		log.Info(evt.Type, attrs...)
	})
	reg.SetEmitter(events)

	store := state.NewStore(db)

	policy, err := buildPolicy(cfg, reg, store, events)
	if err != nil {
		log.Error("build tranches policy", "error", err)
		os.Exit(1)
	}

	poolSafe, err := safe.New(reg)
	if err != nil {
		log.Error("build pool safe", "error", err)
		os.Exit(1)
	}
	poolSafe.SetState(store)
	poolSafe.SetEmitter(events)
	poolSafe.SetFeeReserve(zeroFeeReserve{})
	poolSafe.SetMetrics(metrics.Pool())
	poolSafe.Cache().SetEmitter(events)

	corePool, err := pool.New(reg, policy, poolSafe)
	if err != nil {
		log.Error("build pool", "error", err)
		os.Exit(1)
	}
	corePool.SetState(store)
	corePool.SetEmitter(events)
	corePool.SetMetrics(metrics.Pool())
	corePool.Cache().SetEmitter(events)

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           gateway.New(corePool, poolSafe, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("gateway listening", "address", cfg.ListenAddress, "policy", policy.Name())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("gateway stopped", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

func buildPolicy(cfg *config.Config, reg *registry.Registry, store *state.Store, events types.Emitter) (tranche.Policy, error) {
	switch cfg.TranchesPolicy {
	case config.PolicyFixedSeniorYield:
		policy, err := tranche.NewFixedSeniorYieldPolicy(reg, calendar.NewStandard())
		if err != nil {
			return nil, err
		}
		policy.SetState(store)
		policy.SetEmitter(events)
		policy.Cache().SetEmitter(events)
		return policy, nil
	default:
		policy, err := tranche.NewRiskAdjustedPolicy(reg)
		if err != nil {
			return nil, err
		}
		policy.Cache().SetEmitter(events)
		return policy, nil
	}
}
