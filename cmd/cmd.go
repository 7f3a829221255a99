package cmd

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snapgram-backend/internal/config"
	"snapgram-backend/internal/handlers"
	"snapgram-backend/internal/repository"
	"snapgram-backend/internal/repository/memory"
	"snapgram-backend/internal/repository/mongodb"
	"snapgram-backend/internal/repository/postgres"
	"snapgram-backend/internal/services"
	"snapgram-backend/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// repositories is the storage backend selected by database.driver
type repositories struct {
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	close    func()
}

func Run() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	ctx := context.Background()

	// Connect to database
	repos, err := openRepositories(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to open database")
	}
	defer repos.close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("Database connection established")

	// Object storage
	store, media, err := openObjectStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object store")
	}

	// Initialize services
	mediaService := services.NewMediaService(store, cfg.Media.MaxDimension, cfg.Media.JPEGQuality, cfg.Media.MaxPixels)
	userService := services.NewUserService(repos.users, mediaService, cfg.JWT.Secret)
	postService := services.NewPostService(repos.posts, repos.comments, repos.users, mediaService)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, handlers.CookieOptions{Secure: cfg.Server.CookieSecure}, cfg.Media.MaxUploadBytes)
	postHandler := handlers.NewPostHandler(postService, cfg.Media.MaxUploadBytes)

	// Setup router
	r := handlers.NewRouter(userService, userHandler, postHandler, handlers.RouterOptions{
		CORSOrigin:     cfg.Server.CORSOrigin,
		RequestLogging: true,
		Media:          media,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openRepositories connects to the configured database and prepares its schema
func openRepositories(ctx context.Context, cfg config.DatabaseConfig) (*repositories, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := pgxpool.New(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		if err := postgres.Init(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return &repositories{
			users:    postgres.NewUserRepository(db),
			posts:    postgres.NewPostRepository(db),
			comments: postgres.NewCommentRepository(db),
			close:    db.Close,
		}, nil

	case config.DriverMongo:
		db, err := mongodb.Open(ctx, cfg.URL, cfg.DBName)
		if err != nil {
			return nil, err
		}
		closeClient := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := db.Client().Disconnect(disconnectCtx); err != nil {
				log.Error().Err(err).Msg("Failed to disconnect from mongo")
			}
		}
		if err := mongodb.Init(ctx, db); err != nil {
			closeClient()
			return nil, err
		}
		return &repositories{
			users:    mongodb.NewUserRepository(db),
			posts:    mongodb.NewPostRepository(db),
			comments: mongodb.NewCommentRepository(db),
			close:    closeClient,
		}, nil

	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:    store.Users(),
			posts:    store.Posts(),
			comments: store.Comments(),
			close:    func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// openObjectStore returns the S3 store, or an in-process store served under
// /media/ for the memory driver when no bucket is configured.
func openObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, http.Handler, error) {
	if cfg.AWS.S3Bucket == "" {
		store := storage.NewMemoryStore(fmt.Sprintf("http://localhost:%d/media", cfg.Server.Port))
		log.Warn().Msg("No S3 bucket configured, uploads are kept in memory")
		return store, store, nil
	}

	store, err := storage.NewS3Store(ctx, storage.S3Options{
		Region:    cfg.AWS.Region,
		Bucket:    cfg.AWS.S3Bucket,
		AccessKey: cfg.AWS.AccessKey,
		SecretKey: cfg.AWS.SecretKey,
		Endpoint:  cfg.AWS.Endpoint,
		PublicURL: cfg.AWS.PublicURL,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("bucket", cfg.AWS.S3Bucket).Msg("S3 storage ready")
	return store, nil, nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
