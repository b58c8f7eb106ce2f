package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nextchat-ai/nextchat/pkg/cache"
	"github.com/nextchat-ai/nextchat/pkg/config"
	"github.com/nextchat-ai/nextchat/pkg/conversation"
	"github.com/nextchat-ai/nextchat/pkg/dispatch"
	"github.com/nextchat-ai/nextchat/pkg/logging"
	"github.com/nextchat-ai/nextchat/pkg/provider"
	"github.com/nextchat-ai/nextchat/pkg/settings"
	"github.com/nextchat-ai/nextchat/pkg/storage"
)

// app is the fully wired core shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    storage.Storage
	cache    *cache.Cache
	settings *settings.Settings
	conv     *conversation.Store
	images   *provider.ImageClient
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.LoadOrDefault(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	st := settings.New(store,
		settings.WithDefaults(cfg.Credentials),
		settings.WithDefaultModel(cfg.DefaultModel),
		settings.WithLogger(logger.Named("settings")),
	)
	if err := st.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	c := cache.New(store, cache.WithLogger(logger.Named("cache")))

	providerOpts := []provider.Option{
		provider.WithCache(c),
		provider.WithLogger(logger.Named("provider")),
	}
	d := dispatch.Default(st, map[dispatch.Family]string{
		dispatch.FamilyOpenAI: cfg.Providers.OpenAI.BaseURL,
		dispatch.FamilyGemini: cfg.Providers.Gemini.BaseURL,
		dispatch.FamilyBaidu:  cfg.Providers.Baidu.BaseURL,
		dispatch.FamilyQwen:   cfg.Providers.Qwen.BaseURL,
		dispatch.FamilyZhipu:  cfg.Providers.Zhipu.BaseURL,
	}, providerOpts, dispatch.WithLogger(logger.Named("dispatch")))

	conv := conversation.New(store, d,
		conversation.WithLimits(cfg.History.MaxMessages, cfg.History.MaxSessions),
		conversation.WithLogger(logger.Named("conversation")),
	)
	if err := conv.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	images := provider.NewImageClient(
		provider.WithBaseURL(cfg.Providers.OpenAI.BaseURL),
		provider.WithLogger(logger.Named("images")),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		cache:    c,
		settings: st,
		conv:     conv,
		images:   images,
	}, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	t := storage.Type(cfg.Type)
	opts := []storage.Option{storage.WithPath(cfg.Path)}
	if t == storage.TypeRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		opts = append(opts, storage.WithRedisClient(client), storage.WithNamespace(cfg.Redis.Namespace))
	}
	return storage.New(ctx, t, opts...)
}

func (a *app) Close() {
	_ = a.logger.Sync()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", zap.Error(err))
	}
}
