package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/pyro-reactive/pyro/internal/config"
	"github.com/pyro-reactive/pyro/pkg/inspect"
	"github.com/pyro-reactive/pyro/pkg/pyro"
	"github.com/pyro-reactive/pyro/pkg/store"
)

func inspectCmd() *cobra.Command {
	var (
		addr string
		demo bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve the state inspector over the default registry",
		Long: `Start an HTTP server exposing JSON snapshots and live WebSocket
feeds for every model registered in the default registry. With --demo,
a sample model is registered and mutated once per second so the live
feed has something to show.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: cfg.SlogLevel(),
			}))
			slog.SetDefault(logger)

			st := store.New()
			stop := func() {}
			if demo {
				if stop, err = startDemo(st); err != nil {
					return err
				}
			}
			defer stop()

			r := chi.NewRouter()
			opts := []inspect.Option{inspect.WithLogger(logger)}
			if cfg.FrameBuffer > 0 {
				opts = append(opts, inspect.WithFrameBuffer(cfg.FrameBuffer))
			}
			r.Mount("/", inspect.New(st, opts...).Routes())
			if cfg.Metrics {
				r.Handle("/metrics", promhttp.Handler())
			}

			srv := &http.Server{Addr: cfg.Addr, Handler: r}
			errc := make(chan error, 1)
			go func() {
				logger.Info("inspector listening", "addr", cfg.Addr)
				errc <- srv.ListenAndServe()
			}()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-sigc:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides pyro.json)")
	cmd.Flags().BoolVar(&demo, "demo", false, "Register a self-mutating demo model")

	return cmd
}

// startDemo registers a small player model and bumps it every second.
func startDemo(st *store.Store) (func(), error) {
	schema, err := pyro.NewSchema("DemoPlayer").
		Atom("volume", 50).
		Atom("muted", false).
		List("queue", []any{"intro.flac"}).
		Computed("label", func(m *pyro.Model) any {
			if m.Get("muted").(bool) {
				return "muted"
			}
			return fmt.Sprintf("volume %v%%", m.Get("volume"))
		}).
		Build()
	if err != nil {
		return nil, err
	}

	m, err := pyro.NewModel(schema)
	if err != nil {
		return nil, err
	}
	if err := st.Register("demo", m); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		n := 0
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				n++
				_ = m.Set("volume", (50+n*7)%101)
				if n%10 == 0 {
					_ = m.Toggle("muted")
				}
			}
		}
	}()
	return func() { close(done) }, nil
}
