// Package typeindex wires the registry components: the Solid pod client, the
// profile loader, the registry service and its HTTP handler.
package typeindex

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"typeindex/internal/platform/config"
	"typeindex/internal/platform/token"
	"typeindex/internal/typeindex/adapters/solidpod"
	"typeindex/internal/typeindex/adapters/solidpod/cache"
	"typeindex/internal/typeindex/fragment"
	"typeindex/internal/typeindex/handler"
	"typeindex/internal/typeindex/metrics"
	"typeindex/internal/typeindex/ports"
	"typeindex/internal/typeindex/service"
	"typeindex/internal/webid"
)

// Service is the registry engine.
type Service = service.Service

// Handler wires HTTP endpoints to the registry service.
type Handler = handler.Handler

// FragmentFunc derives registration fragment identifiers.
type FragmentFunc = fragment.Func

// Deps are the shared resources a Module is built from. Redis, Audit and
// AuditLog are optional.
type Deps struct {
	Config     config.Config
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Redis      goredis.UniversalClient
	Audit      ports.AuditPublisher
	AuditLog   handler.AuditLog
	Fragment   FragmentFunc
}

type Module struct {
	Client   *solidpod.Client
	Profiles *webid.Loader
	Service  *Service
	Handler  *Handler
}

// New builds every registry component from deps.
func New(deps Deps) (*Module, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	reg := deps.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	clientOpts := []solidpod.Option{
		solidpod.WithLogger(logger),
		solidpod.WithMetrics(solidpod.NewMetrics(reg)),
	}
	docCache, err := newCache(deps.Config.Cache, deps.Redis)
	if err != nil {
		return nil, err
	}
	if docCache != nil {
		clientOpts = append(clientOpts, solidpod.WithCache(docCache))
	}
	if deps.Config.Token.SigningKey != "" {
		signer, err := token.NewSigner(deps.Config.Token)
		if err != nil {
			return nil, err
		}
		clientOpts = append(clientOpts, solidpod.WithTokenSource(solidpod.NewSignerTokenSource(signer, "")))
	}
	client, err := solidpod.New(deps.Config.Pod, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("pod client: %w", err)
	}

	profiles, err := webid.New(client, webid.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(reg)),
		service.WithFragmentFunc(deps.Fragment),
	}
	if deps.Audit != nil {
		svcOpts = append(svcOpts, service.WithAuditPublisher(deps.Audit))
	}
	svc, err := service.New(client, svcOpts...)
	if err != nil {
		return nil, err
	}

	var handlerOpts []handler.Option
	if deps.AuditLog != nil {
		handlerOpts = append(handlerOpts, handler.WithAuditLog(deps.AuditLog))
	}

	return &Module{
		Client:   client,
		Profiles: profiles,
		Service:  svc,
		Handler:  handler.New(svc, profiles, logger, handlerOpts...),
	}, nil
}

func newCache(cfg config.Cache, rdb goredis.UniversalClient) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "none":
		return nil, nil
	case "memory":
		return cache.NewMemory(cfg.TTL), nil
	case "redis":
		if rdb == nil {
			return nil, errors.New("redis cache backend requires a redis client")
		}
		return cache.NewRedis(rdb, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
