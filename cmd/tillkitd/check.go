package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tillkit/pkg/plan"
)

var checkFlags struct {
	tier    string
	kind    string
	count   int64
	feature string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a quota or a feature against a plan tier",
	Example: `  tillkitd check --tier standard --kind staff_seats --count 5
  tillkitd check --tier pro --feature ai_assistant`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		catalog, err := loadCatalog(cfg, log)
		if err != nil {
			return err
		}

		out, err := runCheck(catalog, checkFlags.tier, checkFlags.kind, checkFlags.feature, checkFlags.count)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.tier, "tier", "", "plan tier or legacy alias")
	f.StringVar(&checkFlags.kind, "kind", "", "limit kind")
	f.Int64Var(&checkFlags.count, "count", 0, "current usage")
	f.StringVar(&checkFlags.feature, "feature", "", "feature flag")
	_ = checkCmd.MarkFlagRequired("tier")
	checkCmd.MarkFlagsOneRequired("kind", "feature")
}

type checkResult struct {
	Tier    plan.Tier         `json:"tier"`
	Display string            `json:"display_name"`
	Kind    plan.LimitKind    `json:"kind,omitempty"`
	Count   *int64            `json:"count,omitempty"`
	Limit   *plan.LimitResult `json:"limit,omitempty"`
	Feature plan.Feature      `json:"feature,omitempty"`
	Enabled *bool             `json:"enabled,omitempty"`
}

func runCheck(catalog *plan.Catalog, rawTier, kind, feature string, count int64) (checkResult, error) {
	tier, ok := plan.ResolveTier(rawTier)
	if !ok {
		return checkResult{}, fmt.Errorf("unknown tier %q", rawTier)
	}

	res := checkResult{Tier: tier, Display: plan.DisplayName(tier)}
	if kind != "" {
		k := plan.LimitKind(kind)
		if !plan.IsKnownLimitKind(k) {
			return checkResult{}, fmt.Errorf("unknown limit kind %q", kind)
		}
		limit := catalog.CheckLimit(tier, k, count)
		res.Kind, res.Count, res.Limit = k, &count, &limit
	}
	if feature != "" {
		f := plan.Feature(feature)
		if !plan.IsKnownFeature(f) {
			return checkResult{}, fmt.Errorf("unknown feature %q", feature)
		}
		enabled := catalog.HasFeature(tier, f)
		res.Feature, res.Enabled = f, &enabled
	}
	return res, nil
}
