// Package bootstrap собирает клиентские компоненты для одного пользователя.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"Notico/internal/cli/api"
	"Notico/internal/cli/model"
	"Notico/internal/cli/repo"
	fsrepo "Notico/internal/cli/repo/fs"
	"Notico/internal/cli/service"
	"Notico/internal/cli/store"
	"Notico/internal/cli/syncer"
	"Notico/internal/config"
)

// Session — открытая база пользователя и всё, что с ней работает.
type Session struct {
	Login     string
	Store     *store.Store
	Items     *service.ItemService
	Folders   *service.FolderService
	Transfer  *service.Transfer
	Auth      *service.AuthService
	Engine    *syncer.Engine
	Scheduler *syncer.Scheduler
	Client    *api.Client
	AuthStore fsrepo.AuthFSStore
	Logger    *zap.SugaredLogger
}

// NewLogger builds the client logger writing to stderr at the given level.
func NewLogger(level string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = "warn"
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = lvl
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	l, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Open opens the database of the last logged-in user (or the anonymous one),
// restores the stored plan and purges trash past retention.
func Open(ctx context.Context, cfg *config.Config) (*Session, error) {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return OpenWithLogger(ctx, cfg, logger)
}

// OpenWithLogger is Open with a logger owned by the caller.
func OpenWithLogger(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*Session, error) {
	auth := fsrepo.AuthFSStore{Dir: cfg.AuthDir}
	login, err := auth.LoadLogin()
	if err != nil {
		login = store.AnonymousLogin
	}
	token, _ := auth.Load()

	st, err := store.OpenForUser(ctx, cfg.ClientDBPath, login)
	if err != nil {
		return nil, fmt.Errorf("open user db: %w", err)
	}

	client := api.NewClient(cfg.ServerURL, token, cfg.SyncTimeout)
	engine := syncer.NewEngine(st, client, syncer.Options{
		RequestTimeout: cfg.SyncTimeout,
		KeepFailedOps:  cfg.KeepFailedOps,
		Logger:         logger.Named("sync"),
	})
	sched := syncer.NewScheduler(engine, syncer.SchedulerOptions{
		Debounce:     cfg.SyncDebounce,
		PollInterval: cfg.SyncPollInterval,
		Logger:       logger.Named("scheduler"),
	})
	clock := service.NewClock(nil)
	items := service.NewItemService(st, sched, clock, logger.Named("items"))
	folders := service.NewFolderService(st, sched, clock, logger.Named("folders"))

	s := &Session{
		Login:     login,
		Store:     st,
		Items:     items,
		Folders:   folders,
		Transfer:  service.NewTransfer(st, items, folders, clock),
		Auth:      service.NewAuthService(client, auth, auth),
		Engine:    engine,
		Scheduler: sched,
		Client:    client,
		AuthStore: auth,
		Logger:    logger,
	}

	tier, err := s.storedTier(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	engine.SetTier(tier)

	if _, err := items.PurgeExpired(ctx); err != nil {
		logger.Warnw("purge expired items", "error", err)
	}
	if _, err := folders.PurgeExpired(ctx); err != nil {
		logger.Warnw("purge expired folders", "error", err)
	}
	logger.Debugw("session opened", "login", login, "db", st.Path(), "tier", tier)
	return s, nil
}

func (s *Session) storedTier(ctx context.Context) (model.Tier, error) {
	tier := model.TierFree
	err := s.Store.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		raw, err := r.Meta.Get(ctx, repo.MetaTier)
		if err != nil {
			return err
		}
		if model.Tier(raw) == model.TierPro {
			tier = model.TierPro
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read tier: %w", err)
	}
	return tier, nil
}

// SetTier stores the plan and applies it to the engine.
func (s *Session) SetTier(ctx context.Context, tier model.Tier) error {
	err := s.Store.InTx(ctx, func(ctx context.Context, r repo.Repositories) error {
		return r.Meta.Set(ctx, repo.MetaTier, []byte(tier))
	})
	if err != nil {
		return fmt.Errorf("save tier: %w", err)
	}
	s.Engine.SetTier(tier)
	return nil
}

// RefreshTier asks the server for the plan. Anonymous sessions stay free;
// when the server is unreachable the stored plan is kept.
func (s *Session) RefreshTier(ctx context.Context) (model.Tier, error) {
	if s.Login == store.AnonymousLogin {
		return model.TierFree, nil
	}
	info, err := s.Auth.Account(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return model.TierFree, s.SetTier(ctx, model.TierFree)
		}
		return s.Engine.Tier(), err
	}
	tier := service.TierOf(info, time.Now())
	return tier, s.SetTier(ctx, tier)
}

// Close closes the user database. Pending rounds are not flushed here.
func (s *Session) Close() error {
	_ = s.Logger.Sync()
	return s.Store.Close()
}
