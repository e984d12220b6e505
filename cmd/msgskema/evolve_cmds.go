package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/reoring/msgskema"
	"github.com/reoring/msgskema/binder"
	"github.com/reoring/msgskema/metrics"
	"github.com/reoring/msgskema/registry"
)

func newCompatCmd(a *app) *cobra.Command {
	var (
		source    string
		dest      string
		direction string
		policy    string
	)
	cmd := &cobra.Command{
		Use:   "compat",
		Short: "Check that a wire schema can be bound to the program's schema",
		Long: `Bind the destination (wire) schema against the source schema, the one
the program's runtime objects follow, and report the first incompatibility.

Directions:
  inbound    wire data described by the destination is decoded into
             source objects
  outbound   source objects are encoded as wire data described by the
             destination
  both       either way (the default)

A policy file assigns directions per group:

  default = "both"
  [groups]
  Quote = "inbound"

Examples:
  msgskema compat --source v1.yaml --dest v2.yaml --direction inbound
  msgskema compat --source v1.yaml --dest v2.yaml --policy policy.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pol, desc, err := a.policy(cmd, direction, policy)
			if err != nil {
				return err
			}
			src, err := a.loadSchema(source)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			src, err = msgskema.BindRuntimeGroups(src)
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			dst, err := a.loadSchema(dest)
			if err != nil {
				return fmt.Errorf("destination: %w", err)
			}

			b := binder.New(src, binder.WithLogger(a.logger))
			bound, err := b.Bind(dst, pol)
			if err != nil {
				if ie, ok := binder.AsIncompatible(err); ok {
					fmt.Fprintf(a.out, "  %s %s -> %s\n      %v\n", crossMark, source, dest, ie)
				}
				return err
			}
			fmt.Fprintf(a.out, "  %s %s -> %s (%s, %d groups)\n", checkMark, source, dest, desc, len(bound.Groups()))
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "source schema document: the program's runtime schema")
	cmd.Flags().StringVar(&dest, "dest", "", "destination schema document: the wire schema")
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "bind direction: inbound, outbound or both")
	cmd.Flags().StringVar(&policy, "policy", "", "TOML file with per-group directions")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("dest")
	cmd.MarkFlagsMutuallyExclusive("direction", "policy")
	return cmd
}

// policy picks the direction policy: flags first, then the config file.
func (a *app) policy(cmd *cobra.Command, direction, path string) (binder.DirectionPolicy, string, error) {
	if cmd.Flags().Changed("direction") {
		d, err := binder.ParseDirection(direction)
		if err != nil {
			return nil, "", err
		}
		return binder.Fixed(d), d.String(), nil
	}
	if path == "" {
		path = a.cfg.Policy
	}
	if path != "" {
		p, err := binder.LoadPolicy(path)
		if err != nil {
			return nil, "", err
		}
		return p, "policy " + path, nil
	}
	return binder.Fixed(a.cfg.Direction), a.cfg.Direction.String(), nil
}

func newWatchCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "watch <schema>",
		Short: "Reload and validate a schema whenever it or its overlay changes",
		Long: `Watch a schema document and its overlay. Every change is validated;
invalid edits are logged and the last valid schema is kept. SIGHUP forces
a reload.

With --metrics-addr an HTTP server exposes:
  /metrics   Prometheus metrics
  /healthz   liveness
  /schema    the current schema as a JSON document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				addr = a.cfg.MetricsAddr
			}
			promReg := prometheus.NewRegistry()
			collector := metrics.New(promReg)

			opts := []registry.Option{
				registry.WithLogger(a.logger),
				registry.WithMetrics(collector),
				registry.WithPrepare(msgskema.BindRuntimeGroups),
			}
			if a.cfg.Overlay != "" {
				opts = append(opts, registry.WithOverlay(a.cfg.Overlay, a.cfg.OverlayMode))
			}
			reg, err := registry.New(args[0], opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "  %s %s (%d groups)\n", checkMark, args[0], len(reg.Get().Groups()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if addr != "" {
				srv := &http.Server{
					Addr:              addr,
					Handler:           newStatusRouter(reg, promReg),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.logger.Error().Err(err).Str("addr", addr).Msg("status server failed")
						stop()
					}
				}()
				a.logger.Info().Str("addr", addr).Msg("serving metrics")
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			reg.WatchSignals()
			if err := reg.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "metrics-addr", "", "listen address for /metrics, /healthz and /schema")
	return cmd
}
