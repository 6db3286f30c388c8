package main

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"

	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain/addresses"
	"storefront/internal/domain/categories"
	"storefront/internal/domain/passwordreset"
	"storefront/internal/domain/products"
	"storefront/internal/domain/qna"
	"storefront/internal/domain/storage"
	"storefront/internal/domain/users"
	"storefront/internal/filestore"
	"storefront/internal/mailer"
	"storefront/internal/ratelimiter"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a console zap logger with colored levels.
func NewLogger(level zapcore.Level) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder

	consoleEncoder := zapcore.NewConsoleEncoder(encoderCfg)
	core := zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core).Sugar(), nil
}

var version = "1.0.0"

//	@title			Storefront API
//	@description	Catalog, accounts and product Q&A for the storefront.

//	@contact.name	API Support
//	@contact.url	http://www.swagger.io/support
//	@contact.email	support@swagger.io

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	level := zapcore.DebugLevel
	if cfg.IsProduction() {
		level = zapcore.InfoLevel
	}
	logger, err := NewLogger(level)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.DB)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	// Menu cache and rate limiter windows
	rdb, err := cache.NewRedisClient(context.Background(), cfg.Redis)
	if err != nil {
		logger.Fatal(err)
	}
	defer rdb.Close()
	logger.Infow("redis connected", "addr", cfg.Redis.Addr)

	files, err := filestore.NewCloudinary(cfg.CloudinaryURL, "products")
	if err != nil {
		logger.Fatal(err)
	}

	smtp := mailer.NewSMTPMailer(cfg.Mail)

	var rateLimiter ratelimiter.Limiter
	switch cfg.RateLimiter.Store {
	case "memory":
		rateLimiter = ratelimiter.NewFixedWindowLimiter(cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	default:
		rateLimiter = ratelimiter.NewRedisFixedWindowLimiter(rdb, cfg.RateLimiter.RequestsPerTimeFrame, cfg.RateLimiter.TimeFrame)
	}
	defer rateLimiter.Stop()

	jwtAuthenticator := auth.NewJWTAuthenticator(cfg.Auth)

	store := storage.NewContainer(pool)

	usersService := users.NewService(store.Users, logger)
	menu := categories.NewMenuService(store.Categories, store.Products, cache.NewRedisCache(rdb), cfg.Catalog.MenuCacheTTL, logger)
	categoriesService := categories.NewService(store.Categories, menu, logger)

	app := &application{
		config:        cfg,
		store:         store,
		logger:        logger,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
		services: services{
			users:      usersService,
			addresses:  addresses.NewService(store.Addresses),
			categories: categoriesService,
			menu:       menu,
			products:   products.NewService(store.Products, categoriesService, menu, files, cfg.Catalog.PageSize, logger),
			resets: passwordreset.NewService(
				passwordreset.NewTokens(store.ResetTokens, cfg.Catalog.ResetTokenTTL),
				usersService, smtp, cfg.FrontendURL, logger,
			),
			qna: qna.NewService(store.QnA, logger),
		},
	}

	// Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return db.Stats(pool)
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
