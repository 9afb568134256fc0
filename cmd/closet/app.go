package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/closetkit/closet/pkg/config"
	"github.com/closetkit/closet/pkg/history"
	"github.com/closetkit/closet/pkg/kv"
	kvfile "github.com/closetkit/closet/pkg/kv/file"
	"github.com/closetkit/closet/pkg/kv/memory"
	kvredis "github.com/closetkit/closet/pkg/kv/redis"
	kvsqlite "github.com/closetkit/closet/pkg/kv/sqlite"
	"github.com/closetkit/closet/pkg/logging"
	"github.com/closetkit/closet/pkg/respcache"
	"github.com/closetkit/closet/pkg/similarity"
)

// app holds the loaded configuration and logger for one command invocation.
type app struct {
	cfg *config.Config
	log *slog.Logger
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log, os.Stderr)
	slog.SetDefault(log)
	return &app{cfg: cfg, log: log}, nil
}

// openStore opens the configured key-value backend.
func (a *app) openStore(ctx context.Context) (kv.Store, error) {
	sc := a.cfg.Storage
	var (
		store kv.Store
		err   error
	)
	switch sc.Backend {
	case "sqlite":
		store, err = kvsqlite.New(sc.DBPath, sc.QuotaBytes)
	case "file":
		store, err = kvfile.New(sc.Dir, sc.QuotaBytes)
	case "redis":
		store, err = kvredis.New(ctx, kvredis.Options{
			Addr:          sc.Redis.Addr,
			Password:      sc.Redis.Password,
			DB:            sc.Redis.DB,
			KeyPrefix:     sc.Redis.KeyPrefix,
			MaxValueBytes: sc.QuotaBytes,
		})
	case "memory":
		store = memory.New(sc.QuotaBytes)
	default:
		err = fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// openCache opens the store and loads the response cache from it.
func (a *app) openCache(ctx context.Context) (*respcache.Cache, func(), error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache store: %w", err)
	}
	c := respcache.New(store, respcache.Options{
		Key:        a.cfg.Cache.Key,
		MaxEntries: a.cfg.Cache.MaxEntries,
		MaxAge:     a.cfg.Cache.MaxAge,
		Logger:     a.log,
	})
	c.Load(ctx)
	return c, func() { _ = store.Close() }, nil
}

func (a *app) openHistory() (*history.SQLiteStore, error) {
	h, err := history.New(a.cfg.History.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return h, nil
}

func (a *app) checker() *similarity.Checker {
	return &similarity.Checker{
		Threshold:        a.cfg.Similarity.Threshold,
		HighWithinDays:   a.cfg.Similarity.HighWithinDays,
		MediumWithinDays: a.cfg.Similarity.MediumWithinDays,
	}
}
