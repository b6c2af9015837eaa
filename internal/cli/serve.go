package cli

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/clabrugere/go-bandits/internal/api"
	"github.com/clabrugere/go-bandits/internal/config"
	"github.com/clabrugere/go-bandits/internal/metrics"
	"github.com/clabrugere/go-bandits/internal/repository"
	"github.com/clabrugere/go-bandits/internal/store"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bandit service's HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(os.Stderr, "[cli] ", log.LstdFlags)

	st := store.New(cfg.Store.Path, cfg.Store.PersistEvery)
	if cfg.Metrics.Enabled {
		st.SetMetrics(metrics.StatePersisted, metrics.StatePersistErrors)
	}
	storeDone := make(chan struct{})
	go st.Run(storeDone)
	defer close(storeDone)

	repo := repository.New(st, cfg.Experiment.SaveEvery)
	if cfg.Metrics.Enabled {
		repo.SetMetrics(metrics.ExperimentDraws, metrics.ExperimentUpdates, metrics.DispatchErrors)
	}
	if err := repo.LoadExperiments(); err != nil {
		return fmt.Errorf("bootstrap experiments: %w", err)
	}

	server := api.NewServer(repo)
	if cfg.Metrics.Enabled {
		server.EnableMetrics()
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	httpServer := &http.Server{Addr: addr, Handler: server.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sig:
		logger.Printf("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
