package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/hupe1980/recgo/internal/server"
	"github.com/hupe1980/recgo/metrics/prom"
)

// newServeCmd creates the "recgo serve" subcommand.
func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve recommendations over HTTP",
		Long: "Load the artifacts, build the configured index and serve\n" +
			"POST /v1/recommend, POST /v1/admin/reindex, GET /healthz and GET /metrics.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			mc, err := prom.NewCollector(reg)
			if err != nil {
				return err
			}

			rec, err := openRecommender(ctx, a, mc, mc.BreakerStateChange)
			if err != nil {
				return err
			}

			srv := server.New(rec, func(o *server.Options) {
				o.Addr = a.cfg.Server.Addr
				o.MaxInFlight = a.cfg.Server.MaxInFlight
				o.ReadTimeout = a.cfg.Server.ReadTimeout
				o.WriteTimeout = a.cfg.Server.WriteTimeout
				o.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
				o.Logger = a.logger
				o.Gatherer = reg
			})
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
