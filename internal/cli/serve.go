package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/adminrules"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/api"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/audit"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/daemon"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/heal"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/lock"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/notify"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/observability"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/replay"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/infra/sqlite"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/ledger"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/leveling"
	"github.com/neonofficialstudio-ux/awbeta1-sub002/internal/sentinel"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sentinel HTTP API",
	RunE:  runServe,
}

// services is the fully wired subsystem graph behind every command.
type services struct {
	store    *sqlite.DB
	calc     leveling.Calculator
	ledger   *ledger.Core
	monitor  *adminrules.Monitor
	sentinel *sentinel.Sentinel
	healer   *heal.Healer
	registry *prometheus.Registry
}

// buildServices opens the database and assembles the subsystem graph.
// Callers must Close the returned store.
func buildServices(cfg daemon.Config) (*services, error) {
	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	metrics := observability.New(registry)
	calc := leveling.New()

	core := ledger.New(ledger.Config{
		Store:   store,
		Locks:   lock.NewRegistry(),
		Guard:   replay.NewGuard(cfg.Replay.Window()),
		Metrics: metrics,
		LockTTL: cfg.Lock.TTL(),
	})
	monitor := adminrules.NewMonitor(adminrules.NewEngine(calc), store, metrics).
		WithNotifier(notify.LogNotifier{})
	sent := sentinel.New(sentinel.Config{
		Store:   store,
		Calc:    calc,
		Audit:   audit.NewEngine(),
		Metrics: metrics,
		Workers: cfg.Scan.Workers,
	})

	return &services{
		store:    store,
		calc:     calc,
		ledger:   core,
		monitor:  monitor,
		sentinel: sent,
		healer:   heal.New(metrics),
		registry: registry,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := buildServices(cfg)
	if err != nil {
		return err
	}
	defer svc.store.Close()

	server := api.NewServer(svc.store, svc.ledger, svc.monitor, svc.sentinel, svc.healer)
	server.EnableMetrics(svc.registry)

	httpServer := &http.Server{
		Addr:    cfg.API.Addr(),
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("sentineld: listening on %s", cfg.API.Addr())
		errCh <- httpServer.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-sigCh:
		log.Printf("sentineld: received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(ctx)
	}
}
