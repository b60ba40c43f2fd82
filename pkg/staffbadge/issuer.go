package staffbadge

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/tillkit/pkg/logger"
	"github.com/dmitrymomot/tillkit/pkg/plan"
	"github.com/dmitrymomot/tillkit/pkg/rbac"
)

const (
	secretBytes    = 32
	tokenSeparator = "."
)

// Staff identifies the staff member a badge is issued to.
type Staff struct {
	StaffID     string
	PrincipalID string
	Role        rbac.Role
}

// Badge is the result of Issue. Token is shown once and never stored.
// QR holds a PNG of the token when the plan allows badge printing.
type Badge struct {
	Credential Credential
	Token      string
	QR         []byte
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithTTL sets how long issued tokens stay valid. Zero means no expiry.
func WithTTL(d time.Duration) Option {
	return func(i *Issuer) {
		if d >= 0 {
			i.ttl = d
		}
	}
}

// WithCost sets the bcrypt cost.
func WithCost(cost int) Option {
	return func(i *Issuer) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			i.cost = cost
		}
	}
}

// WithBadgeSize sets the QR image size in pixels.
func WithBadgeSize(px int) Option {
	return func(i *Issuer) {
		if px > 0 {
			i.size = px
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Issuer) {
		if l != nil {
			i.log = l
		}
	}
}

// Issuer hands out quick-login tokens to staff and turns them back into
// delegated sessions. Both directions are gated on the governing plan.
type Issuer struct {
	catalog *plan.Catalog
	store   Store
	ttl     time.Duration
	cost    int
	size    int
	now     func() time.Time
	log     *slog.Logger
}

// NewIssuer creates an Issuer. Panics if catalog or store is nil.
func NewIssuer(catalog *plan.Catalog, store Store, opts ...Option) *Issuer {
	if catalog == nil {
		panic("staffbadge: catalog is required")
	}
	if store == nil {
		panic("staffbadge: store is required")
	}

	i := &Issuer{
		catalog: catalog,
		store:   store,
		ttl:     90 * 24 * time.Hour,
		cost:    bcrypt.DefaultCost,
		size:    defaultBadgeSize,
		now:     time.Now,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue creates a token for staff under the governing tier.
func (i *Issuer) Issue(ctx context.Context, staff Staff, tier plan.Tier) (*Badge, error) {
	if !i.catalog.HasFeature(tier, plan.FeatureQuickLoginToken) {
		return nil, ErrFeatureUnavailable
	}
	staff.StaffID = strings.TrimSpace(staff.StaffID)
	staff.PrincipalID = strings.TrimSpace(staff.PrincipalID)
	if staff.StaffID == "" || staff.PrincipalID == "" {
		return nil, rbac.ErrInvalidSession
	}
	if !staff.Role.IsStaff() {
		return nil, fmt.Errorf("%w: %s is not a staff role", rbac.ErrInvalidRole, staff.Role)
	}

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), i.cost)
	if err != nil {
		return nil, fmt.Errorf("staffbadge: hashing token: %w", err)
	}

	now := i.now().UTC()
	cred := Credential{
		ID:          uuid.New(),
		StaffID:     staff.StaffID,
		PrincipalID: staff.PrincipalID,
		Role:        staff.Role,
		Hash:        hash,
		IssuedAt:    now,
	}
	if i.ttl > 0 {
		cred.ExpiresAt = now.Add(i.ttl)
	}

	badge := &Badge{
		Credential: cred,
		Token:      cred.ID.String() + tokenSeparator + secret,
	}
	if i.catalog.HasFeature(tier, plan.FeatureStaffBadgePrinting) {
		if badge.QR, err = renderQR(badge.Token, i.size); err != nil {
			return nil, err
		}
	}

	if err := i.store.SaveCredential(ctx, cred); err != nil {
		return nil, fmt.Errorf("staffbadge: saving credential: %w", err)
	}

	i.log.InfoContext(ctx, "quick login token issued",
		logger.Owner(staff.PrincipalID),
		slog.String("staff_id", staff.StaffID),
		slog.String("credential_id", cred.ID.String()),
		slog.Bool("printable", badge.QR != nil),
	)
	return badge, nil
}

// Login verifies token on a terminal governed by principalID, whose plan is
// tier, and starts a delegated session. A token issued under another
// principal is rejected as invalid.
func (i *Issuer) Login(ctx context.Context, token, principalID string, tier plan.Tier) (*rbac.DelegatedSession, error) {
	if !i.catalog.HasFeature(tier, plan.FeatureQuickLoginToken) {
		return nil, ErrFeatureUnavailable
	}
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return nil, rbac.ErrInvalidSession
	}

	id, secret, err := splitToken(token)
	if err != nil {
		return nil, err
	}

	cred, err := i.store.Credential(ctx, id)
	if errors.Is(err, ErrCredentialNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if cred.PrincipalID != principalID {
		i.log.WarnContext(ctx, "quick login token used under another principal",
			logger.Owner(principalID),
			slog.String("credential_id", cred.ID.String()),
		)
		return nil, ErrInvalidToken
	}

	now := i.now()
	if cred.ExpiredAt(now) {
		return nil, ErrTokenExpired
	}
	if !Verify(secret, cred.Hash) {
		return nil, ErrInvalidToken
	}

	return rbac.NewDelegatedSession(cred.StaffID, cred.PrincipalID, cred.Role, rbac.LoginMethodToken, now)
}

// Revoke deletes a credential so its token stops working.
func (i *Issuer) Revoke(ctx context.Context, id uuid.UUID) error {
	return i.store.DeleteCredential(ctx, id)
}

// Verify reports whether secret matches a bcrypt hash.
func Verify(secret string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

func splitToken(token string) (uuid.UUID, string, error) {
	rawID, secret, ok := strings.Cut(strings.TrimSpace(token), tokenSeparator)
	if !ok || secret == "" {
		return uuid.Nil, "", ErrInvalidToken
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", ErrInvalidToken
	}
	return id, secret, nil
}

func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("staffbadge: generating secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
