package main

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/tillkit/pkg/entitlement"
	"github.com/dmitrymomot/tillkit/pkg/httpserver"
	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

var watchFlags struct {
	principal string
	staff     string
	role      string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the subscription governing an identity and log every change",
	Example: `  tillkitd watch --principal 7f1c...
  tillkitd watch --principal 7f1c... --staff 93ad... --role staff_cashier`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		actor, err := watchActor()
		if err != nil {
			return err
		}

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		ctx = rbac.WithActor(ctx, actor)

		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}

		be, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		reg := prometheus.NewRegistry()
		sync := entitlement.NewSynchronizer(be.store,
			entitlement.WithLogger(log),
			entitlement.WithMetrics(reg),
			entitlement.WithErrorHandler(func(owner string, err error) {
				log.ErrorContext(ctx, "live sync lost", logger.Owner(owner), logger.Error(err))
			}),
			entitlement.WithChangeHandler(func(owner string, rec *subscription.Record) {
				now := time.Now()
				log.InfoContext(ctx, "snapshot",
					logger.Owner(owner),
					logger.Tier(rec.Tier),
					slog.String("status", string(rec.EffectiveStatusAt(now))),
					slog.Int("days_until_expiry", rec.DaysUntilExpiryAt(now)),
					slog.Bool("stored", !rec.Materialized),
				)
			}),
		)
		defer sync.Close()

		engine := entitlement.NewEngine(catalog, sync, entitlement.WithEngineLogger(log), entitlement.WithLimitMetrics(reg))

		if err := sync.SetActor(ctx, actor); err != nil {
			if !errors.Is(err, entitlement.ErrSyncUnavailable) {
				return err
			}
			log.WarnContext(ctx, "starting without live sync, will retry", logger.Error(err))
		}

		perms := engine.ResolvePermissions(actor)
		log.InfoContext(ctx, "permissions",
			slog.Any("granted", perms.Granted()),
			slog.String("discount_ceiling", perms.DiscountCeiling.String()),
		)
		for _, p := range []rbac.Permission{rbac.PermStaffManage, rbac.PermTransactionDelete} {
			d := engine.Authorize(actor, p)
			log.InfoContext(ctx, "authorization",
				slog.String("permission", string(p)),
				slog.Bool("allowed", d.Allowed()),
				slog.Bool("live", d.Live),
			)
		}

		metrics := http.NewServeMux()
		metrics.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			sync.KeepAlive(ctx, cfg.ResyncInterval)
			return nil
		})
		g.Go(func() error {
			return httpserver.New(httpserver.Config{Addr: cfg.MetricsAddr}, httpserver.WithLogger(log)).Run(ctx, metrics)
		})
		return g.Wait()
	},
}

func init() {
	f := watchCmd.Flags()
	f.StringVar(&watchFlags.principal, "principal", "", "principal id")
	f.StringVar(&watchFlags.staff, "staff", "", "staff id for a delegated session")
	f.StringVar(&watchFlags.role, "role", string(rbac.RoleStaffCashier), "staff role for a delegated session")
	_ = watchCmd.MarkFlagRequired("principal")
}

func watchActor() (rbac.Actor, error) {
	if watchFlags.staff == "" {
		return rbac.PrincipalActor(watchFlags.principal), nil
	}

	role, err := rbac.ParseRole(watchFlags.role)
	if err != nil {
		return rbac.Actor{}, err
	}
	sess, err := rbac.NewDelegatedSession(watchFlags.staff, watchFlags.principal, role, rbac.LoginMethodCredential, time.Now())
	if err != nil {
		return rbac.Actor{}, err
	}
	return rbac.DelegatedActor(sess), nil
}
