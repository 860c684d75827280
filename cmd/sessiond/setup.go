package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity"
	"github.com/MrEthical07/goSession/password"
	"github.com/MrEthical07/goSession/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type deps struct {
	store   *goSession.Store
	ping    pinger
	routes  []func(*gin.Engine)
	closers []func()
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func setup(ctx context.Context, opts *Options) (*deps, error) {
	d := &deps{}

	cfg := goSession.DefaultConfig()
	if opts.Config != "" {
		loaded, err := goSession.LoadConfigFile(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.AuditLog {
		cfg.Audit.Enabled = true
	}

	provider, err := demoProvider(opts)
	if err != nil {
		return nil, err
	}

	logger := log.New(os.Stderr, "sessiond: ", log.LstdFlags)
	b := goSession.New().
		WithConfig(cfg).
		WithIdentityProvider(provider).
		WithLogger(logger)

	rdb, err := redisClient(opts, d)
	if err != nil {
		d.Close()
		return nil, err
	}
	if rdb != nil {
		b.WithRedis(rdb)
		d.ping = session.NewRedisStore(rdb, cfg.Session.RedisPrefix).Ping
	}

	if opts.StateDir != "" {
		fileStore, err := session.NewFileStore(opts.StateDir)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("state dir: %w", err)
		}
		b.WithPersister(fileStore)
	}

	if opts.AuditLog {
		b.WithAuditSink(goSession.NewJSONWriterSink(os.Stdout))
	}

	store, err := b.Build()
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("build store: %w", err)
	}
	d.store = store
	d.closers = append(d.closers, store.Close)

	if opts.OtelMetrics {
		route, err := otelRoutes(store, d)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.routes = append(d.routes, route)
	}

	if err := store.Restore(ctx); err != nil {
		if !errors.Is(err, goSession.ErrSessionExpired) && !errors.Is(err, goSession.ErrTokenInvalid) {
			logger.Printf("restore failed: %v", err)
		}
	} else if store.Current().Authenticated() {
		logger.Printf("restored persisted session")
	}

	return d, nil
}

func demoProvider(opts *Options) (goSession.IdentityProvider, error) {
	hasher, err := password.NewArgon2(password.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("argon2 init: %w", err)
	}

	dir := identity.NewMemoryDirectory()
	err = dir.Add(opts.User, opts.Password, goSession.Identity{
		UserID:   "user-1",
		Username: opts.User,
		Role:     opts.Role,
	}, hasher)
	if err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}

	return identity.NewPassword(dir, hasher, true)
}

func redisClient(opts *Options, d *deps) (redis.UniversalClient, error) {
	addr := opts.RedisAddr
	if addr == "" && opts.Miniredis {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start miniredis: %w", err)
		}
		d.closers = append(d.closers, mr.Close)
		addr = mr.Addr()
		log.Printf("using miniredis at %s", addr)
	}
	if addr == "" {
		return nil, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	d.closers = append(d.closers, func() { _ = client.Close() })
	return client, nil
}
