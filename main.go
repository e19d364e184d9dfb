package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/yeagerd/briefly-bff/handlers"
	"github.com/yeagerd/briefly-bff/internal/clients/user"
	"github.com/yeagerd/briefly-bff/internal/config"
	"github.com/yeagerd/briefly-bff/internal/database"
	"github.com/yeagerd/briefly-bff/internal/gateway"
	"github.com/yeagerd/briefly-bff/internal/identity"
	"github.com/yeagerd/briefly-bff/internal/oauth"
	"github.com/yeagerd/briefly-bff/internal/oidc"
	"github.com/yeagerd/briefly-bff/internal/sessions"
	"github.com/yeagerd/briefly-bff/internal/tokens"
	"github.com/yeagerd/briefly-bff/pkg/logger"
	"github.com/yeagerd/briefly-bff/pkg/metrics"
	"github.com/yeagerd/briefly-bff/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// log level controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: gateway=%s redis=%v mongo=%v", cfg.Services.GatewayURL, cfg.Redis.Host != "", cfg.MongoDB.URI != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for the browser frontend. NEXTAUTH_URL names the
	// allowed origin; without it fall back to a permissive dev policy.
	allowedOrigin := cfg.Auth.PublicURL
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	ctx := context.Background()

	// Connect to Redis early so both the rate limiter and the token
	// blacklist can use it.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			sessions.SetBlacklistClient(redisClient)
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Session store: Redis when available, Mongo as fallback.
	var sessionSvc *sessions.Service
	if redisClient != nil {
		sessionSvc = sessions.NewService(sessions.NewRedisRepository(redisClient, "session:"))
		logger.Infof("using Redis for session storage")
	} else if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5)
		if err != nil {
			logger.Fatalf("could not connect to MongoDB: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		col := client.Database(cfg.MongoDB.Database).Collection("sessions")
		sessionSvc = sessions.NewService(sessions.NewMongoRepository(col))
		logger.Infof("using MongoDB for session storage")
	} else {
		logger.Fatalf("no session store configured: set REDIS_HOST or MONGODB_URI")
	}

	// OAuth providers and id-token verifiers.
	providers := map[string]oauth.Provider{}
	verifiers := map[string]oidc.TokenVerifier{}
	if cfg.OAuth.GoogleClientID != "" {
		g := oauth.NewGoogle(oauth.GoogleConfig{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
		})
		providers["google"] = g
		if ver, err := oidc.NewVerifier(ctx, g.Issuer(), cfg.OAuth.GoogleClientID); err != nil {
			logger.Warnf("failed to initialize Google OIDC verifier: %v", err)
		} else {
			verifiers["google"] = ver
		}
	}
	if cfg.OAuth.AzureClientID != "" {
		ms := oauth.NewMicrosoft(oauth.MicrosoftConfig{
			ClientID:     cfg.OAuth.AzureClientID,
			ClientSecret: cfg.OAuth.AzureClientSecret,
			TenantID:     cfg.OAuth.AzureTenantID,
		})
		providers["azure-ad"] = ms
		if ver, err := oidc.NewVerifier(ctx, ms.Issuer(), cfg.OAuth.AzureClientID); err != nil {
			logger.Warnf("failed to initialize Microsoft OIDC verifier: %v", err)
		} else {
			verifiers["azure-ad"] = ver
		}
	}
	// Integration-test escape hatch: parse id_token claims without signature
	// verification. Explicit opt-in only.
	if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
		logger.Warn("enabling insecure id_token verifier (integration mode)")
		for name := range providers {
			if _, ok := verifiers[name]; !ok {
				verifiers[name] = oidc.NewInsecureVerifier()
			}
		}
	}

	minter := tokens.NewMinter(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Audience)

	// The user service is called directly with its own API key; everything
	// else goes through the gateway with a per-request minted bearer.
	userClient := user.New(gateway.New(cfg.Services.UserURL, gateway.WithAPIKey(cfg.Keys.User)))
	bridger := identity.NewBridger(userClient)

	gw := gateway.New(cfg.Services.GatewayURL,
		gateway.WithAPIKey(cfg.Keys.Chat),
		gateway.WithTokenSource(func(ctx context.Context) (string, error) {
			sess, ok := sessions.FromContext(ctx)
			if !ok {
				return "", nil
			}
			return minter.Mint(sess.UserID, sess.Email, time.Now())
		}),
	)

	auth := handlers.NewAuthHandler(cfg, providers, verifiers, bridger, sessionSvc, minter)
	auth.Register(&r.RouterGroup)

	proxy := handlers.NewProxyHandler(gw)
	protected := r.Group("/", middleware.SessionAuth(sessionSvc, minter))
	proxy.Register(protected)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["sessions"] = sessionSvc != nil
		if redisClient != nil {
			deps["redis"] = redisClient.Ping(c.Request.Context()).Err() == nil
			if !deps["redis"] {
				ready = false
			}
		}
		deps["oauth"] = len(providers) > 0
		if !deps["oauth"] {
			ready = false
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting briefly-bff on %s (env=%s, providers=%d)", addr, cfg.Server.Environment, len(providers))
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
