package entitlementapi

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
	"github.com/dmitrymomot/tillkit/pkg/subscription"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithClock overrides the time source for date rules.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) {
		if now != nil {
			h.now = now
		}
	}
}

// Handler serves read-only entitlement queries over a catalog and a
// record store.
type Handler struct {
	catalog *plan.Catalog
	records subscription.Reader
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Handler. Panics if catalog or records is nil.
func New(catalog *plan.Catalog, records subscription.Reader, opts ...Option) *Handler {
	if catalog == nil {
		panic("entitlementapi: catalog is required")
	}
	if records == nil {
		panic("entitlementapi: record reader is required")
	}

	h := &Handler{
		catalog: catalog,
		records: records,
		log:     logger.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Router returns the query routes, ready to be mounted.
//
//	r := chi.NewRouter()
//	r.Mount("/v1", entitlementapi.New(catalog, store).Router())
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Route("/plans", func(r chi.Router) {
		r.Get("/", h.listPlans)
		r.Route("/{tier}", func(r chi.Router) {
			r.Get("/", h.getPlan)
			r.Get("/limits/{kind}", h.checkLimit)
			r.Get("/features/{feature}", h.hasFeature)
			r.Get("/compare/{target}", h.compare)
		})
	})
	r.Get("/roles/{role}/permissions", h.rolePermissions)
	r.Get("/subscriptions/{owner}", h.getSubscription)

	return r
}

// PlanView is the public shape of a catalog entry.
type PlanView struct {
	Tier        plan.Tier                `json:"tier"`
	Name        string                   `json:"name"`
	DisplayName string                   `json:"display_name"`
	Limits      map[plan.LimitKind]int64 `json:"limits"`
	Features    []plan.Feature           `json:"features"`
}

func planView(e plan.Entitlement) PlanView {
	return PlanView{
		Tier:        e.Tier,
		Name:        e.Name,
		DisplayName: plan.DisplayName(e.Tier),
		Limits:      e.Limits,
		Features:    e.Features,
	}
}

// LimitView is the result of a quota check.
type LimitView struct {
	Tier  plan.Tier      `json:"tier"`
	Kind  plan.LimitKind `json:"kind"`
	Count int64          `json:"count"`
	Usage int            `json:"usage_percentage"`
	plan.LimitResult
}

// FeatureView is the result of a feature check.
type FeatureView struct {
	Tier    plan.Tier    `json:"tier"`
	Feature plan.Feature `json:"feature"`
	Enabled bool         `json:"enabled"`
}

// ComparisonView describes a tier change.
type ComparisonView struct {
	From            plan.Tier                           `json:"from"`
	To              plan.Tier                           `json:"to"`
	Downgrade       bool                                `json:"downgrade"`
	NewFeatures     []plan.Feature                      `json:"new_features"`
	LostFeatures    []plan.Feature                      `json:"lost_features"`
	IncreasedLimits map[plan.LimitKind]plan.LimitChange `json:"increased_limits"`
	DecreasedLimits map[plan.LimitKind]plan.LimitChange `json:"decreased_limits"`
}

// RoleView lists the permissions of a role.
type RoleView struct {
	Role        rbac.Role          `json:"role"`
	Granted     []rbac.Permission  `json:"granted"`
	Permissions rbac.PermissionSet `json:"permissions"`
}

// SubscriptionView is a record with its derived state.
type SubscriptionView struct {
	Record          *subscription.Record  `json:"record"`
	Stored          bool                  `json:"stored"`
	Expired         bool                  `json:"expired"`
	EffectiveStatus subscription.Status   `json:"effective_status"`
	DaysUntilExpiry int                   `json:"days_until_expiry"`
	Live            bool                  `json:"live"`
	Behavior        subscription.Behavior `json:"behavior"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	entries := h.catalog.Entitlements()
	views := make([]PlanView, 0, len(entries))
	for _, e := range entries {
		views = append(views, planView(e))
	}
	h.respond(w, r, views)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	tier, err := h.tierParam(r, "tier")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, _ := h.catalog.Lookup(tier)
	h.respond(w, r, planView(e))
}

func (h *Handler) checkLimit(w http.ResponseWriter, r *http.Request) {
	tier, err := h.tierParam(r, "tier")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	kind := plan.LimitKind(strings.ToLower(chi.URLParam(r, "kind")))
	if !plan.IsKnownLimitKind(kind) {
		h.fail(w, r, fmt.Errorf("%w: %q", ErrInvalidLimitKind, kind))
		return
	}

	var count int64
	if raw := r.URL.Query().Get("count"); raw != "" {
		count, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: %q", ErrInvalidCount, raw))
			return
		}
	}

	res := h.catalog.CheckLimit(tier, kind, count)
	h.respond(w, r, LimitView{
		Tier:        tier,
		Kind:        kind,
		Count:       count,
		Usage:       plan.UsagePercentage(count, res.Limit),
		LimitResult: res,
	})
}

func (h *Handler) hasFeature(w http.ResponseWriter, r *http.Request) {
	tier, err := h.tierParam(r, "tier")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	feature := plan.Feature(strings.ToLower(chi.URLParam(r, "feature")))
	if !plan.IsKnownFeature(feature) {
		h.fail(w, r, fmt.Errorf("%w: %q", ErrInvalidFeature, feature))
		return
	}

	h.respond(w, r, FeatureView{
		Tier:    tier,
		Feature: feature,
		Enabled: h.catalog.HasFeature(tier, feature),
	})
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	from, err := h.tierParam(r, "tier")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	to, err := h.tierParam(r, "target")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	cmp := h.catalog.Compare(from, to)
	h.respond(w, r, ComparisonView{
		From:            cmp.From,
		To:              cmp.To,
		Downgrade:       cmp.IsDowngrade(),
		NewFeatures:     cmp.NewFeatures,
		LostFeatures:    cmp.LostFeatures,
		IncreasedLimits: cmp.IncreasedLimits,
		DecreasedLimits: cmp.DecreasedLimits,
	})
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	role, err := rbac.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	set := rbac.ResolveRole(role)
	h.respond(w, r, RoleView{
		Role:        role,
		Granted:     set.Granted(),
		Permissions: set,
	})
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(chi.URLParam(r, "owner"))
	if owner == "" {
		h.fail(w, r, ErrInvalidOwner)
		return
	}

	now := h.now()
	rec, err := h.records.Get(r.Context(), owner)
	switch {
	case err == nil:
		rec.Normalize()
	case errors.Is(err, subscription.ErrRecordNotFound):
		rec = subscription.NewTrialRecord(owner, now)
		rec.Materialized = true
	default:
		h.fail(w, r, errors.Join(ErrStoreUnavailable, err))
		return
	}

	status := rec.EffectiveStatusAt(now)
	h.respond(w, r, SubscriptionView{
		Record:          rec,
		Stored:          !rec.Materialized,
		Expired:         rec.IsExpiredAt(now),
		EffectiveStatus: status,
		DaysUntilExpiry: rec.DaysUntilExpiryAt(now),
		Live:            rec.IsLiveAt(now),
		Behavior:        subscription.BehaviorOf(status),
	})
}

// tierParam accepts current tier names and legacy aliases. Unknown tiers
// are rejected here even though the catalog would fall back for them.
func (h *Handler) tierParam(r *http.Request, name string) (plan.Tier, error) {
	raw := chi.URLParam(r, name)
	tier, ok := plan.ResolveTier(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, raw)
	}
	if _, ok := h.catalog.Lookup(tier); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTier, raw)
	}
	return tier, nil
}
