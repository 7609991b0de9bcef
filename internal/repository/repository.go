package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"kdo-portal/internal/models"
	"kdo-portal/internal/storage"
	"kdo-portal/internal/util"
)

const (
	KeyPilots      = "kdo_v10_pilots"
	KeySettings    = "kdo_v10_settings"
	KeyLogs        = "kdo_v10_logs"
	KeyTrack       = "kdo_v10_track"
	KeyAuth        = "kdo_v10_auth"
	KeyAdmins      = "kdo_v10_admins"
	KeyRegulations = "kdo_v10_regs"
	KeyChamps      = "kdo_v10_champs"
	KeyNews        = "kdo_v10_news"
	KeyVotes       = "kdo_v10_votes"
	KeyPenalties   = "kdo_v10_penalties"
	KeyMarketplace = "kdo_v10_marketplace"
)

// SystemActor is recorded on audit entries written without a logged-in admin.
const SystemActor = "SYSTEM"

// Repository stores each collection as one JSON document under a fixed key.
// Reads never fail: a missing key yields the seed value and an unreadable one
// yields the default (logged). Saves overwrite the whole collection.
//
// AddLog and CastVote are read-modify-write and are serialized within the
// process. Two processes saving the same collection still race and the last
// write wins.
type Repository struct {
	store      storage.Store
	logger     *zap.Logger
	now        func() time.Time
	categories []string
	adminHash  string
	onAudit    func(models.AuditLog)

	mu sync.Mutex
}

type Option func(*Repository)

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func WithCategories(categories []string) Option {
	return func(r *Repository) {
		if len(categories) > 0 {
			r.categories = append([]string(nil), categories...)
		}
	}
}

// WithBootstrapPassword sets the password of the seeded SuperAdmin account.
// Without it the seeded account cannot log in until a password is assigned.
func WithBootstrapPassword(password string) Option {
	return func(r *Repository) {
		if password == "" {
			return
		}
		h, err := util.HashPassword(password)
		if err != nil {
			r.logger.Error("hash bootstrap password", zap.Error(err))
			return
		}
		r.adminHash = h
	}
}

// WithAuditHook is called after every audit entry is stored.
func WithAuditHook(fn func(models.AuditLog)) Option {
	return func(r *Repository) { r.onAudit = fn }
}

func New(store storage.Store, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		store:      store,
		logger:     logger.Named("repository"),
		now:        time.Now,
		categories: append([]string(nil), DefaultCategories...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func load[T any](ctx context.Context, r *Repository, key string, def func() T) T {
	raw, found, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("read failed, using default", zap.String("key", key), zap.Error(err))
		return def()
	}
	if !found {
		return def()
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		r.logger.Warn("corrupt value, using default", zap.String("key", key), zap.Error(err))
		return def()
	}
	return out
}

func save[T any](ctx context.Context, r *Repository, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return errors.Wrapf(r.store.Set(ctx, key, raw), "save %s", key)
}

func empty[T any]() []T { return []T{} }

// Pilots

func (r *Repository) GetPilots(ctx context.Context) []models.Pilot {
	return load(ctx, r, KeyPilots, seedPilots)
}

func (r *Repository) SavePilots(ctx context.Context, pilots []models.Pilot) error {
	return save(ctx, r, KeyPilots, nonNil(pilots))
}

// Championships

func (r *Repository) GetChampionships(ctx context.Context) []models.Championship {
	return load(ctx, r, KeyChamps, seedChampionships)
}

func (r *Repository) SaveChampionships(ctx context.Context, champs []models.Championship) error {
	return save(ctx, r, KeyChamps, nonNil(champs))
}

// Regulations

func (r *Repository) GetRegulations(ctx context.Context) []models.Regulation {
	return load(ctx, r, KeyRegulations, empty[models.Regulation])
}

func (r *Repository) SaveRegulations(ctx context.Context, regs []models.Regulation) error {
	return save(ctx, r, KeyRegulations, nonNil(regs))
}

// Press releases

func (r *Repository) GetPressReleases(ctx context.Context) []models.PressRelease {
	return load(ctx, r, KeyNews, seedPressReleases)
}

func (r *Repository) SavePressReleases(ctx context.Context, news []models.PressRelease) error {
	return save(ctx, r, KeyNews, nonNil(news))
}

// Penalties

func (r *Repository) GetPenalties(ctx context.Context) []models.Penalty {
	return load(ctx, r, KeyPenalties, seedPenalties)
}

func (r *Repository) SavePenalties(ctx context.Context, penalties []models.Penalty) error {
	return save(ctx, r, KeyPenalties, nonNil(penalties))
}

// Marketplace

func (r *Repository) GetMarketplace(ctx context.Context) []models.MarketplaceItem {
	return load(ctx, r, KeyMarketplace, empty[models.MarketplaceItem])
}

func (r *Repository) SaveMarketplace(ctx context.Context, items []models.MarketplaceItem) error {
	return save(ctx, r, KeyMarketplace, nonNil(items))
}

// Staff accounts

func (r *Repository) GetAdminUsers(ctx context.Context) []models.AdminUser {
	return load(ctx, r, KeyAdmins, r.seedAdmins)
}

func (r *Repository) SaveAdminUsers(ctx context.Context, users []models.AdminUser) error {
	return save(ctx, r, KeyAdmins, nonNil(users))
}

// Settings

func (r *Repository) GetSettings(ctx context.Context) models.SystemSettings {
	return load(ctx, r, KeySettings, DefaultSettings)
}

func (r *Repository) SaveSettings(ctx context.Context, s models.SystemSettings) error {
	return save(ctx, r, KeySettings, s)
}

// Track flag. Stored as the bare label rather than JSON.

func (r *Repository) GetTrackStatus(ctx context.Context) models.TrackFlag {
	raw, found, err := r.store.Get(ctx, KeyTrack)
	if err != nil {
		r.logger.Warn("read failed, using default", zap.String("key", KeyTrack), zap.Error(err))
		return models.FlagGreen
	}
	if !found {
		return models.FlagGreen
	}
	flag, err := models.ParseTrackFlag(string(raw))
	if err != nil {
		r.logger.Warn("corrupt value, using default", zap.String("key", KeyTrack), zap.Error(err))
		return models.FlagGreen
	}
	return flag
}

func (r *Repository) SaveTrackStatus(ctx context.Context, flag models.TrackFlag) error {
	return errors.Wrapf(r.store.Set(ctx, KeyTrack, []byte(flag)), "save %s", KeyTrack)
}

// Read-only reference data

func (r *Repository) GetCircuits(context.Context) []models.Circuit { return seedCircuits() }

func (r *Repository) GetAssociations(context.Context) []models.Association { return seedAssociations() }

func (r *Repository) GetCategories(context.Context) []string {
	return append([]string(nil), r.categories...)
}

// Audit log

func (r *Repository) GetAuditLogs(ctx context.Context) []models.AuditLog {
	return load(ctx, r, KeyLogs, empty[models.AuditLog])
}

// AddLog records one audit entry attributed to actor (SYSTEM when nil).
func (r *Repository) AddLog(ctx context.Context, actor *models.AdminUser, action, detail string) error {
	name := SystemActor
	if actor != nil && actor.Username != "" {
		name = actor.Username
	}
	entry := models.AuditLog{
		ID:        util.NewID(),
		Timestamp: r.now().UnixMilli(),
		Admin:     name,
		Action:    action,
		Details:   detail,
	}

	r.mu.Lock()
	ring := AuditRing(r.GetAuditLogs(ctx)).Push(entry)
	err := save(ctx, r, KeyLogs, []models.AuditLog(ring))
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if r.onAudit != nil {
		r.onAudit(entry)
	}
	return nil
}

// Sessions

func authKey(sessionID string) string { return KeyAuth + ":" + sessionID }

// GetAuth returns the admin bound to sessionID, or nil.
func (r *Repository) GetAuth(ctx context.Context, sessionID string) *models.AdminUser {
	if sessionID == "" {
		return nil
	}
	return load(ctx, r, authKey(sessionID), func() *models.AdminUser { return nil })
}

// SetAuth binds user to sessionID; a nil user clears the session.
func (r *Repository) SetAuth(ctx context.Context, sessionID string, user *models.AdminUser) error {
	if user == nil {
		return errors.Wrap(r.store.Delete(ctx, authKey(sessionID)), "clear session")
	}
	pub := user.Public()
	return save(ctx, r, authKey(sessionID), &pub)
}

// Votes

func (r *Repository) GetVotes(ctx context.Context) map[string]int {
	return load(ctx, r, KeyVotes, func() map[string]int { return map[string]int{} })
}

// CastVote adds one vote for pilotID. Votes are not deduplicated per voter.
func (r *Repository) CastVote(ctx context.Context, pilotID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	votes := r.GetVotes(ctx)
	if votes == nil {
		votes = map[string]int{}
	}
	votes[pilotID]++
	if err := save(ctx, r, KeyVotes, votes); err != nil {
		return 0, err
	}
	return votes[pilotID], nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
