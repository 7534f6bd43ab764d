package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abduss/forum/internal/auth"
	"github.com/abduss/forum/internal/category"
	"github.com/abduss/forum/internal/chat"
	"github.com/abduss/forum/internal/comment"
	"github.com/abduss/forum/internal/config"
	"github.com/abduss/forum/internal/contact"
	"github.com/abduss/forum/internal/conversation"
	"github.com/abduss/forum/internal/image"
	"github.com/abduss/forum/internal/logger"
	"github.com/abduss/forum/internal/mail"
	"github.com/abduss/forum/internal/notification"
	"github.com/abduss/forum/internal/post"
	"github.com/abduss/forum/internal/server"
	"github.com/abduss/forum/internal/storage"
	"github.com/abduss/forum/internal/token"
	"github.com/abduss/forum/internal/user"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	log, err := logger.Init()
	if err != nil {
		os.Stderr.WriteString("init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(log); err != nil {
		log.Fatal("forum api stopped", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx, cfg.Postgres.DSN()); err != nil {
		return err
	}

	dbPool, err := storage.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	minioClient, err := storage.NewMinIOClient(cfg.MinIO)
	if err != nil {
		return err
	}
	if err := storage.EnsureImageBucket(ctx, minioClient, cfg.MinIO, image.PathPrefix); err != nil {
		return err
	}

	redisClient, err := storage.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	issuer := token.NewIssuer(cfg.Auth)
	sender := mail.NewSender(cfg.Mail)

	accounts := user.NewManager(user.NewRepository(dbPool), user.NewTokenStore(redisClient, cfg.Auth.EmailTokenTTL), cfg.Auth)
	images := image.NewService(image.NewRepository(dbPool), image.NewMinIOStore(minioClient, cfg.MinIO.Bucket), cfg.MinIO.PresignTTL)
	refreshTokens := auth.NewRepository(dbPool)
	users := user.NewService(accounts, sender, images, refreshTokens)
	authService := auth.NewService(accounts, users, refreshTokens, issuer, cfg.Auth)

	notifications := notification.NewService(notification.NewRepository(dbPool), accounts)
	categories := category.NewService(category.NewRepository(dbPool))
	posts := post.NewService(post.NewRepository(dbPool), categories, accounts, users, images)
	comments := comment.NewService(comment.NewRepository(dbPool), posts, accounts, users, notifications)
	conversations := conversation.NewService(conversation.NewRepository(dbPool), accounts, users, notifications)

	hub := chat.NewHub(accounts, cfg.Chat.HistorySize)

	router := server.NewRouter(server.Dependencies{
		Config: cfg,
		Health: []server.Checker{
			server.PostgresCheck(dbPool),
			server.MinIOCheck(minioClient, cfg.MinIO.Bucket),
			server.RedisCheck(redisClient),
		},
		Tokens:              issuer,
		Accounts:            accounts,
		AuthService:         authService,
		UserService:         users,
		ImageService:        images,
		CategoryService:     categories,
		PostService:         posts,
		CommentService:      comments,
		NotificationService: notifications,
		ConversationService: conversations,
		ContactService:      contact.NewService(sender),
		ChatHub:             hub,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("forum api listening", zap.String("address", cfg.Server.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info("shutting down gracefully")
	hub.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	return nil
}
