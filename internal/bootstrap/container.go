package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-analytics-client/internal/config"
	"ai-analytics-client/internal/entity"
	"ai-analytics-client/internal/gateway"
	"ai-analytics-client/internal/localstore"
	"ai-analytics-client/internal/pkg/logger"
	"ai-analytics-client/internal/service"
	"ai-analytics-client/pkg/events"
	"ai-analytics-client/pkg/sync/cache"
	"ai-analytics-client/pkg/sync/generation"
	"ai-analytics-client/pkg/sync/hydrate"
	"ai-analytics-client/pkg/sync/paging"
	"ai-analytics-client/pkg/sync/persist"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

// Container wires the sync core for one application lifetime.
type Container struct {
	Config      *config.Config
	Logger      logger.ILogger
	Bus         *events.Bus
	Gateway     gateway.IGateway
	Local       localstore.KeyValueStore
	Cache       *cache.Store
	Persister   *persist.Persister
	Generations *generation.Tracker
	Threads     *paging.Manager
	Pipeline    *hydrate.Pipeline
	ChatService service.IChatService
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	clock := clockwork.NewRealClock()
	bus := events.NewBus()

	// 2. Gateway
	tokens := gateway.NewStaticTokenProvider(cfg.Gateway.AuthToken, sysLogger)
	gw := gateway.NewHTTPGateway(
		cfg.Gateway.BaseURL,
		time.Duration(cfg.Gateway.TimeoutSeconds)*time.Second,
		tokens,
		sysLogger,
	)

	// 3. Local selection mirror (redis for shared deployments, else file)
	var local localstore.KeyValueStore
	if cfg.Local.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Local.RedisURL)
		if err != nil {
			log.Printf("[WARN] Invalid redis URL, falling back to file store: %v", err)
			local = localstore.NewFileStore(cfg.Local.FilePath, sysLogger)
		} else {
			local = localstore.NewRedisStore(redis.NewClient(opts), 0, sysLogger)
		}
	} else {
		local = localstore.NewFileStore(cfg.Local.FilePath, sysLogger)
	}

	// 4. Sync core
	ttls := map[cache.Resource]time.Duration{
		cache.ResourceContext:     time.Duration(cfg.Sync.ContextTTLSeconds) * time.Second,
		cache.ResourceDatasources: time.Duration(cfg.Sync.DatasourceTTLSeconds) * time.Second,
		cache.ResourceSessions:    time.Duration(cfg.Sync.SessionTTLSeconds) * time.Second,
		cache.ResourceMessages:    time.Duration(cfg.Sync.SessionTTLSeconds) * time.Second,
	}
	cacheStore := cache.NewStore(clock, ttls, time.Minute, sysLogger)

	persister := persist.NewPersister(
		clock,
		time.Duration(cfg.Sync.DebounceMs)*time.Millisecond,
		func(ctx context.Context, ownerId uuid.UUID, fields map[string]interface{}) error {
			return gw.UpdateContextState(ctx, ownerId, fields)
		},
		sysLogger,
	)

	gens := generation.NewTracker()

	threads := paging.NewManager(
		func(ctx context.Context, sessionId uuid.UUID, page, pageSize int) ([]*entity.ChatMessage, bool, error) {
			result, err := gw.GetMessages(ctx, sessionId, page, pageSize)
			if err != nil {
				return nil, false, err
			}
			return result.Items, result.HasNext, nil
		},
		cfg.Sync.PageSize,
		bus,
		sysLogger,
	)

	pipeline := hydrate.NewPipeline(cacheStore, gw, persister, gens, threads, local, bus, sysLogger, cfg.Sync.PageSize)

	chatService := service.NewChatService(gw, cacheStore, threads, persister, local, sysLogger)

	return &Container{
		Config:      cfg,
		Logger:      sysLogger,
		Bus:         bus,
		Gateway:     gw,
		Local:       local,
		Cache:       cacheStore,
		Persister:   persister,
		Generations: gens,
		Threads:     threads,
		Pipeline:    pipeline,
		ChatService: chatService,
	}
}

// SignOut wipes every cached entry and materialized thread. Pending
// requests settle harmlessly without repopulating the cache.
func (c *Container) SignOut() {
	c.Persister.Stop()
	c.Cache.ClearAll()
	c.Threads.Reset()
}

// Close releases resources at application shutdown.
func (c *Container) Close() {
	c.Persister.Stop()
	if err := c.Bus.Close(); err != nil {
		log.Printf("[WARN] Closing event bus: %v", err)
	}
	if err := c.Local.Close(); err != nil {
		log.Printf("[WARN] Closing local store: %v", err)
	}
	_ = c.Logger.Sync()
}
