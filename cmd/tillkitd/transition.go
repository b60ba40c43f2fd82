package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

var transitionFlags struct {
	owner  string
	to     string
	tier   string
	period time.Duration
}

var transitionCmd = &cobra.Command{
	Use:   "transition",
	Short: "Apply a lifecycle transition to a stored subscription",
	Example: `  tillkitd transition --owner 7f1c... --to activate --tier unlimited --period 720h
  tillkitd transition --owner 7f1c... --to cancel`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		t := subscription.Transition(transitionFlags.to)
		var opts []subscription.ApplyOption
		if transitionFlags.tier != "" {
			tier, ok := plan.ResolveTier(transitionFlags.tier)
			if !ok {
				return fmt.Errorf("unknown tier %q", transitionFlags.tier)
			}
			opts = append(opts, subscription.WithTier(tier))
		}
		if transitionFlags.period > 0 {
			opts = append(opts, subscription.WithPeriod(transitionFlags.period))
		}

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		be, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		rec, err := be.store.Get(ctx, transitionFlags.owner)
		if err != nil {
			return err
		}

		// Catch up on an elapsed end date first so the transition starts
		// from the effective status.
		now := time.Now()
		rec, _ = subscription.Reconcile(rec, now)

		next, err := subscription.Apply(rec, t, now, opts...)
		if err != nil {
			return err
		}
		if err := be.store.Save(ctx, next); err != nil {
			return err
		}

		log.InfoContext(ctx, "subscription transitioned",
			logger.Owner(next.OwnerID),
			slog.String("transition", string(t)),
			slog.String("from", string(rec.Status)),
			slog.String("to", string(next.Status)),
			logger.Tier(next.Tier),
		)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(next)
	},
}

func init() {
	f := transitionCmd.Flags()
	f.StringVar(&transitionFlags.owner, "owner", "", "principal id")
	f.StringVar(&transitionFlags.to, "to", "", "transition: activate, cancel, expire or restart_trial")
	f.StringVar(&transitionFlags.tier, "tier", "", "tier granted by activate")
	f.DurationVar(&transitionFlags.period, "period", 0, "paid period granted by activate")
	_ = transitionCmd.MarkFlagRequired("owner")
	_ = transitionCmd.MarkFlagRequired("to")
}
