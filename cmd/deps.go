package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/spigell/interview-screener/internal/ai"
	"github.com/spigell/interview-screener/internal/catalog"
	"github.com/spigell/interview-screener/internal/dashboard"
	"github.com/spigell/interview-screener/internal/interview"
	"github.com/spigell/interview-screener/internal/logger"
	"github.com/spigell/interview-screener/internal/secrets"
	"github.com/spigell/interview-screener/internal/sink"
	"github.com/spigell/interview-screener/internal/storage"
)

const connectTimeout = 10 * time.Second

// deps holds the long-lived clients shared by the commands. Optional
// backends stay nil when they are not configured.
type deps struct {
	logger *zap.Logger
	config *Config

	mongo     *mongo.Client
	db        *mongo.Database
	redis     *redis.Client
	results   storage.ResultRepo
	dashboard *dashboard.Service
}

func newDeps(ctx context.Context, config *Config, logger *zap.Logger) (*deps, error) {
	d := &deps{logger: logger, config: config}

	if uri := strings.TrimSpace(config.Mongo.URI); uri != "" {
		client, err := connectMongo(ctx, uri)
		if err != nil {
			return nil, err
		}
		d.mongo = client
		d.db = client.Database(config.Mongo.Database)
		d.results = storage.NewResultRepo(d.db)
		logger.Info("connected to mongodb", zap.String("database", config.Mongo.Database))
	}

	if addr := strings.TrimSpace(config.Redis.Addr); addr != "" {
		client, err := connectRedis(ctx, config.Redis)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		d.redis = client
		logger.Info("connected to redis", zap.String("addr", addr))
	}

	if d.results != nil {
		var cache dashboard.Cache
		if d.redis != nil {
			cache = storage.NewDashboardCache(d.redis, config.Redis.DashboardTTL)
		}
		d.dashboard = dashboard.NewService(d.results, cache, config.Dashboard.Limit, logger)
	}

	return d, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client, nil
}

func connectRedis(ctx context.Context, cfg *RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

// sessionStore prefers Redis and falls back to process memory.
func (d *deps) sessionStore() storage.SessionStore {
	if d.redis != nil {
		return storage.NewRedisSessionStore(d.redis, d.config.Redis.SessionTTL)
	}
	d.logger.Warn("redis is not configured, sessions are kept in memory")
	return storage.NewMemorySessionStore(d.config.Redis.SessionTTL)
}

func (d *deps) loadCatalog(ctx context.Context) (*interview.Catalog, error) {
	switch source := strings.ToLower(strings.TrimSpace(d.config.Catalog.Source)); source {
	case "", "builtin":
		return catalog.Default(), nil
	case "file":
		if d.config.Catalog.File == "" {
			return nil, fmt.Errorf("catalog.file is required for the file catalog source")
		}
		return catalog.LoadFile(d.config.Catalog.File)
	case "mongo":
		if d.db == nil {
			return nil, fmt.Errorf("mongo.uri is required for the mongo catalog source")
		}
		return catalog.NewMongoSource(d.db).Load(ctx)
	default:
		return nil, fmt.Errorf("unsupported catalog source: %s", d.config.Catalog.Source)
	}
}

func (d *deps) evaluator(ctx context.Context) (interview.Evaluator, error) {
	cfg := d.config.AI
	opts := ai.Options{
		Provider:     cfg.Provider,
		Model:        cfg.Gemini.Model,
		MaxRetries:   cfg.Gemini.MaxRetries,
		Timeout:      cfg.Gemini.Timeout,
		MaxLogLength: cfg.Gemini.MaxLogLength,
	}

	if !strings.EqualFold(strings.TrimSpace(cfg.Provider), ai.ProviderOffline) {
		apiKey, err := secrets.Load(secrets.Source{
			Name: "gemini api key",
			File: cfg.Gemini.APIKeyFile,
			Env:  "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set ai.gemini.api-key-file, GEMINI_API_KEY_FILE or GEMINI_API_KEY)", err)
		}
		opts.APIKey = apiKey
	}

	return ai.NewEvaluator(ctx, opts, d.logger)
}

// dispatcher wires the configured delivery targets. It returns nil when
// neither storage nor a webhook is configured.
func (d *deps) dispatcher() (*sink.Dispatcher, error) {
	var persister sink.Persister
	if d.dashboard != nil {
		persister = d.dashboard
	}

	var notifier sink.Notifier
	webhook := secrets.Source{
		Name: "webhook url",
		File: d.config.Webhook.URLFile,
		Env:  "WEBHOOK_URL",
	}
	if webhook.Configured() {
		url, err := secrets.Load(webhook)
		if err != nil {
			return nil, err
		}
		notifier = sink.NewWebhookNotifier(url, d.config.Webhook.Timeout, d.logger)
	}

	if persister == nil && notifier == nil {
		d.logger.Warn("neither mongo nor webhook is configured, interview results will not be delivered")
		return nil, nil
	}

	return sink.NewDispatcher(persister, notifier, d.config.Server.DeliveryTimeout, d.logger), nil
}

func (d *deps) Close(ctx context.Context) {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			d.logger.Warn("closing redis client", zap.Error(err))
		}
	}
	if d.mongo != nil {
		if err := d.mongo.Disconnect(ctx); err != nil {
			d.logger.Warn("disconnecting from mongodb", zap.Error(err))
		}
	}
}

// bootstrap builds the logger and reads the config for a command.
func bootstrap(command string) (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the "+app, zap.String("command", command), zap.String("version", version), zap.String("commit", commit))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}
