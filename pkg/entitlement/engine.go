package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// UsageCounter reports the current usage of one quota dimension.
type UsageCounter interface {
	Count(ctx context.Context, ownerID string) (int64, error)
}

// UsageCounterFunc adapts a function to UsageCounter.
type UsageCounterFunc func(ctx context.Context, ownerID string) (int64, error)

// Count implements UsageCounter.
func (f UsageCounterFunc) Count(ctx context.Context, ownerID string) (int64, error) {
	return f(ctx, ownerID)
}

// permissionFeatures maps role permissions to the plan feature that must
// also be enabled for them to take effect.
var permissionFeatures = map[rbac.Permission]plan.Feature{
	rbac.PermStaffManage:       plan.FeatureStaffManagement,
	rbac.PermTransactionDelete: plan.FeatureTransactionDeletion,
}

// RequiredFeature returns the plan feature gating perm, if any.
func RequiredFeature(perm rbac.Permission) (plan.Feature, bool) {
	f, ok := permissionFeatures[perm]
	return f, ok
}

// Decision is the outcome of Authorize.
//
// Allowed combines the role and plan axes. Live is reported separately:
// what an expired or cancelled subscription still permits is up to the
// caller.
type Decision struct {
	Permission     rbac.Permission     `json:"permission"`
	RoleAllowed    bool                `json:"role_allowed"`
	Feature        plan.Feature        `json:"feature,omitempty"`
	FeatureAllowed bool                `json:"feature_allowed"`
	Tier           plan.Tier           `json:"tier,omitempty"`
	Status         subscription.Status `json:"status,omitempty"`
	Live           bool                `json:"live"`
}

// Allowed reports whether both the role and the plan grant the permission.
func (d Decision) Allowed() bool {
	return d.RoleAllowed && d.FeatureAllowed
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithEngineClock overrides the time source for date rules.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLimitMetrics registers the limit check counter with reg.
func WithLimitMetrics(reg prometheus.Registerer) EngineOption {
	return func(e *Engine) {
		e.metrics = newEngineMetrics(reg)
	}
}

// WithCounter registers the usage counter for kind.
func WithCounter(kind plan.LimitKind, c UsageCounter) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.counters[kind] = c
		}
	}
}

// Engine answers entitlement questions for the identity tracked by a
// Synchronizer. Every query is a synchronous computation over the last
// snapshot.
type Engine struct {
	catalog  *plan.Catalog
	sync     *Synchronizer
	log      *slog.Logger
	now      func() time.Time
	metrics  *engineMetrics
	counters map[plan.LimitKind]UsageCounter
}

// NewEngine creates an Engine. Panics if catalog or sync is nil.
func NewEngine(catalog *plan.Catalog, sync *Synchronizer, opts ...EngineOption) *Engine {
	if catalog == nil {
		panic("entitlement: catalog is required")
	}
	if sync == nil {
		panic("entitlement: synchronizer is required")
	}

	e := &Engine{
		catalog:  catalog,
		sync:     sync,
		log:      logger.Discard(),
		now:      time.Now,
		counters: make(map[plan.LimitKind]UsageCounter),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = newEngineMetrics(nil)
	}

	return e
}

// Catalog returns the plan catalog.
func (e *Engine) Catalog() *plan.Catalog {
	return e.catalog
}

// Synchronizer returns the underlying synchronizer.
func (e *Engine) Synchronizer() *Synchronizer {
	return e.sync
}

// ResolvePermissions returns the role permissions of actor.
func (e *Engine) ResolvePermissions(actor rbac.Actor) rbac.PermissionSet {
	return rbac.Resolve(actor)
}

// CheckLimit checks current against the quota of kind on tier.
func (e *Engine) CheckLimit(tier plan.Tier, kind plan.LimitKind, current int64) plan.LimitResult {
	res := e.catalog.CheckLimit(tier, kind, current)
	e.metrics.observe(kind, res)
	return res
}

// HasFeature reports whether tier enables feature.
func (e *Engine) HasFeature(tier plan.Tier, feature plan.Feature) bool {
	return e.catalog.HasFeature(tier, feature)
}

// CurrentSnapshot returns a copy of the governing record.
func (e *Engine) CurrentSnapshot() (*subscription.Record, bool) {
	return e.sync.Snapshot()
}

// IsExpired reports whether rec is past its end date. A nil record is expired.
func (e *Engine) IsExpired(rec *subscription.Record) bool {
	if rec == nil {
		return true
	}
	return rec.IsExpiredAt(e.now())
}

// DaysUntilExpiry returns the whole days left on rec, 0 for nil.
func (e *Engine) DaysUntilExpiry(rec *subscription.Record) int {
	if rec == nil {
		return 0
	}
	return rec.DaysUntilExpiryAt(e.now())
}

// Tier returns the governing tier, trial while nothing is materialized.
func (e *Engine) Tier() plan.Tier {
	if rec, ok := e.sync.Snapshot(); ok {
		return rec.Tier
	}
	return plan.TierTrial
}

// Allows checks current against the governing plan quota of kind.
// Without a snapshot every quota is denied.
func (e *Engine) Allows(kind plan.LimitKind, current int64) plan.LimitResult {
	rec, ok := e.sync.Snapshot()
	if !ok {
		return plan.LimitResult{}
	}
	return e.CheckLimit(rec.Tier, kind, current)
}

// Enabled reports whether the governing plan enables feature.
func (e *Engine) Enabled(feature plan.Feature) bool {
	rec, ok := e.sync.Snapshot()
	if !ok {
		return false
	}
	return e.catalog.HasFeature(rec.Tier, feature)
}

// CheckUsage counts the usage of kind through the registered counter and
// checks it against the governing plan.
func (e *Engine) CheckUsage(ctx context.Context, kind plan.LimitKind) (plan.LimitResult, error) {
	owner := e.sync.Owner()
	if owner == "" {
		return plan.LimitResult{}, nil
	}

	counter, ok := e.counters[kind]
	if !ok {
		return plan.LimitResult{}, fmt.Errorf("%w: %s", ErrNoCounter, kind)
	}

	n, err := counter.Count(ctx, owner)
	if err != nil {
		e.log.WarnContext(ctx, "usage count failed",
			logger.Owner(owner),
			slog.String("kind", string(kind)),
			logger.Error(err),
		)
		return plan.LimitResult{}, fmt.Errorf("%w: %s: %w", ErrUsageCount, kind, err)
	}

	return e.Allows(kind, n), nil
}

// Authorize checks perm on both axes: the actor's role and the governing
// plan. Permissions without a gating feature pass the plan axis whenever a
// snapshot exists. An actor governed by a different owner than the one
// being synchronized is denied on the plan axis.
func (e *Engine) Authorize(actor rbac.Actor, perm rbac.Permission) Decision {
	d := Decision{
		Permission:  perm,
		RoleAllowed: rbac.Resolve(actor).Can(perm),
	}

	owner, ok := GoverningOwner(actor)
	rec, found := e.sync.Snapshot()
	if !ok || !found || rec.OwnerID != owner {
		return d
	}

	now := e.now()
	d.Tier = rec.Tier
	d.Status = rec.EffectiveStatusAt(now)
	d.Live = rec.IsLiveAt(now)

	if f, gated := permissionFeatures[perm]; gated {
		d.Feature = f
		d.FeatureAllowed = e.catalog.HasFeature(rec.Tier, f)
	} else {
		d.FeatureAllowed = true
	}

	return d
}
