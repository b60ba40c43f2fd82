package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

var registerOwner string

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create the initial trial record for a new principal",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		be, err := openStore(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer be.close()

		rec, err := subscription.Register(ctx, be.store, registerOwner, time.Now())
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "principal registered", logger.Owner(rec.OwnerID), logger.Tier(rec.Tier))

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	registerCmd.Flags().StringVar(&registerOwner, "owner", "", "principal id")
	_ = registerCmd.MarkFlagRequired("owner")
}
