package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/redis/rueidis"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/johnallens/content-platform/handlers"
	"github.com/johnallens/content-platform/internal/auth"
	"github.com/johnallens/content-platform/internal/config"
	"github.com/johnallens/content-platform/internal/content"
	contentindex "github.com/johnallens/content-platform/internal/content/index"
	"github.com/johnallens/content-platform/internal/content/repository"
	"github.com/johnallens/content-platform/internal/content/service"
	"github.com/johnallens/content-platform/internal/database"
	"github.com/johnallens/content-platform/internal/identity"
	"github.com/johnallens/content-platform/internal/notify"
	"github.com/johnallens/content-platform/internal/storage"
	"github.com/johnallens/content-platform/pkg/logger"
	"github.com/johnallens/content-platform/pkg/metrics"
	"github.com/johnallens/content-platform/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v search=%v storage=%v oidc=%v",
		cfg.MongoDB.URI != "", cfg.Search.Addr != "", cfg.Storage.Endpoint != "", cfg.OIDC.IssuerURL != "")

	r := gin.New()

	// Lightweight CORS middleware for dev/test: set common headers and respond to OPTIONS.
	// (Keep this intentionally simple — production should use a stricter policy.)
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	})

	// Global middlewares: logging + recovery
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Connect to Redis early so the rate-limiter and token revocation can use it
	var limiterRedis *redis.Client
	if cfg.Redis.Host != "" {
		limiterRedis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := limiterRedis.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			limiterRedis = nil
		} else {
			logger.Infof("Connected to Redis for rate limiting and revocation: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && limiterRedis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(limiterRedis, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
		}
	}

	// token revocation backed by the same Redis instance
	revocation := auth.NewRevocationStore(limiterRedis)
	if limiterRedis != nil {
		middleware.SetRevocationCheck(revocation.IsRevoked)
	}

	// Connect to MongoDB with retry/backoff to tolerate startup races
	var mongoClient *mongo.Client
	{
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
	}
	defer func() { _ = mongoClient.Disconnect(ctx) }()
	db := mongoClient.Database(cfg.MongoDB.Database)

	// Connect to the search backend
	var searchClient rueidis.Client
	searchClient, err = database.ConnectSearch(ctx, cfg.Search.Addr, cfg.Search.Password, cfg.Search.DB, cfg.Search.Timeout)
	if err != nil {
		logger.Fatalf("could not connect to search backend: %v", err)
	}
	defer searchClient.Close()

	// Optional media object storage
	var mediaStorage *storage.MediaStorage
	if cfg.Storage.Endpoint != "" {
		mediaStorage, err = storage.NewMediaStorage(cfg.Storage)
		if err != nil {
			logger.Warnf("media storage unavailable: %v", err)
		}
	}

	// Notification sender: SMTP when configured, log-only otherwise
	var sender notify.Sender
	if cfg.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	} else {
		sender = notify.NewLogSender()
	}

	// One service per content kind, all sharing the same wiring
	ids := identity.UUID()
	services := make(map[string]*service.Service, 3)
	for _, schema := range []*content.Schema{content.CatalogItem(), content.MediaEntry(), content.AwardListing()} {
		store := repository.NewMongoStore(db.Collection(schema.Collection))
		idx := contentindex.NewRedisIndex(searchClient, schema)
		if err := idx.EnsureIndex(ctx); err != nil {
			logger.Fatalf("failed to ensure search index %s: %v", schema.IndexName, err)
		}
		svc := service.New(schema, store, idx, ids)
		if schema.NotifyTemplate != "" && cfg.Notify.Recipient != "" {
			svc = svc.WithNotifier(sender, cfg.Notify.Recipient)
		}
		services[schema.Kind] = svc
	}

	// Token verifier for write endpoints: OIDC when configured, local
	// HS256 otherwise
	var verifier middleware.Verifier
	if cfg.OIDC.IssuerURL != "" && cfg.OIDC.ClientID != "" {
		ver, err := auth.NewOIDCVerifier(ctx, cfg.OIDC.IssuerURL, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil && cfg.JWT.Secret != "" {
		verifier = auth.NewSecretVerifier(cfg.JWT.Secret)
	}
	var guard gin.HandlerFunc
	if verifier != nil {
		guard = middleware.AuthMiddleware(verifier)
	} else {
		logger.Warnf("no token verifier configured; write endpoints are unprotected")
	}

	// Routes
	handlers.NewAuthHandler(cfg, revocation).Register(r.Group("/"))
	handlers.RegisterSwagger(r)

	api := r.Group("/api/v1")
	handlers.NewContentHandler(services["catalog"]).Register(api, "catalog", guard)
	handlers.NewContentHandler(services["awards"]).Register(api, "awards", guard)

	var objectStore handlers.ObjectStorage
	if mediaStorage != nil {
		objectStore = mediaStorage
	}
	mediaHandler := handlers.NewMediaHandler(services["media"], objectStore, ids)
	handlers.NewContentHandler(services["media"]).WithCleanup(mediaHandler.Cleanup).Register(api, "media", guard)
	mediaHandler.Register(api, guard)

	// Basic health endpoint
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		deps["mongo"] = mongoClient.Ping(pingCtx, nil) == nil
		deps["search"] = searchClient.Do(pingCtx, searchClient.B().Ping().Build()).Error() == nil
		if !deps["mongo"] || !deps["search"] {
			ready = false
		}
		deps["storage"] = mediaStorage != nil

		status := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			status["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		status["status"] = "ready"
		c.JSON(http.StatusOK, status)
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("Starting content platform on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
