// Package main runs the Brick Studio backend HTTP server with WebSocket and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brickstudio/backend/config"
	"github.com/brickstudio/backend/internal/auth"
	"github.com/brickstudio/backend/internal/blog"
	"github.com/brickstudio/backend/internal/live"
	"github.com/brickstudio/backend/internal/middleware"
	"github.com/brickstudio/backend/internal/realtime"
	"github.com/brickstudio/backend/internal/reviews"
	"github.com/brickstudio/backend/internal/workshops"
	"github.com/brickstudio/backend/pkg/database"
	"github.com/brickstudio/backend/pkg/queue"
	"github.com/brickstudio/backend/pkg/redis"
	"github.com/brickstudio/backend/pkg/response"
	"github.com/brickstudio/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Workshops
	workshopRepo := workshops.NewRepository(pool)

	// Live rooms (authoritative presentation state, fanned out over Redis)
	broadcaster := realtime.NewRedisBroadcaster(rdb.Client, logger)
	snapshots := live.NewSnapshotCache(rdb.Client, time.Duration(cfg.Live.SnapshotTTLMinutes)*time.Minute)
	manager := live.NewManager(broadcaster, snapshots, workshopRepo, clockwork.NewRealClock(),
		time.Duration(cfg.Live.TickMillis)*time.Millisecond, logger)
	defer manager.Close()

	resolvePincode := func(ctx context.Context, pincode string) (uuid.UUID, error) {
		w, err := workshopRepo.GetByPincode(ctx, pincode)
		if err != nil {
			return uuid.Nil, err
		}
		return w.ID, nil
	}

	hub := realtime.NewHub(broadcaster, logger)
	liveHandler := live.NewHandler(manager, live.PincodeResolver(resolvePincode), logger)
	workshopHandler := workshops.NewHandler(workshopRepo, manager, hub, logger)

	// Blog
	blogRepo := blog.NewRepository(pool)
	blogHandler := blog.NewHandler(blogRepo, s3Client, logger)

	// Reviews
	jobQueue := queue.NewQueue(rdb.Client, logger)
	reviewRepo := reviews.NewRepository(pool)
	reviewHandler := reviews.NewHandler(reviewRepo, workshopRepo, jobQueue, cfg.Email.ReviewBaseURL, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (login public; register is admin-only, behind JWT below)
	router.POST("/auth/login", authHandler.Login)

	// Public site surface (no JWT)
	public := router.Group("/public")
	{
		public.POST("/viewer/resolve", workshopHandler.ResolvePincode)
		public.GET("/live", liveHandler.ViewerState)
		public.GET("/blog", blogHandler.ListPublic)
		public.GET("/blog/:slug", blogHandler.GetBySlug)
		public.GET("/reviews", reviewHandler.ListPublic)
		public.GET("/reviews/:token", reviewHandler.Describe)
		public.POST("/reviews/:token", reviewHandler.Submit)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users
		api.POST("/auth/register", middleware.RequireRole("admin"), authHandler.Register)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Workshops
		api.GET("/workshops", workshopHandler.List)
		api.POST("/workshops", workshopHandler.Create)
		api.GET("/workshops/:id", workshopHandler.GetByID)
		api.PATCH("/workshops/:id", workshopHandler.Update)
		api.DELETE("/workshops/:id", middleware.RequireRole("admin"), workshopHandler.Delete)
		api.POST("/workshops/:id/start", workshopHandler.Start)
		api.POST("/workshops/:id/complete", workshopHandler.Complete)
		api.POST("/workshops/:id/pincode/rotate", workshopHandler.RotatePincode)
		api.GET("/workshops/:id/audience_count", workshopHandler.AudienceCount)

		// Session plan
		api.POST("/workshops/:id/sessions", workshopHandler.CreateSession)
		api.PUT("/workshops/:id/sessions/order", workshopHandler.ReorderSessions)
		api.PATCH("/sessions/:id", workshopHandler.UpdateSession)
		api.DELETE("/sessions/:id", workshopHandler.DeleteSession)

		// Live control (facilitator console fallback when WS is unavailable)
		api.GET("/workshops/:id/live", liveHandler.GetState)
		api.POST("/workshops/:id/live/slides/next", liveHandler.NextSlide)
		api.POST("/workshops/:id/live/slides/prev", liveHandler.PrevSlide)
		api.POST("/workshops/:id/live/slides/goto", liveHandler.GotoSlide)
		api.POST("/workshops/:id/live/timer/start", liveHandler.StartTimer)
		api.POST("/workshops/:id/live/timer/pause", liveHandler.PauseTimer)
		api.POST("/workshops/:id/live/timer/resume", liveHandler.ResumeTimer)
		api.POST("/workshops/:id/live/timer/stop", liveHandler.StopTimer)
		api.POST("/workshops/:id/live/display_mode", liveHandler.SetDisplayMode)
		api.POST("/workshops/:id/live/alarm/mute", liveHandler.MuteAlarm)
		api.POST("/workshops/:id/live/alarm/snooze", liveHandler.SnoozeAlarm)
		api.POST("/workshops/:id/live/alarm/dismiss", liveHandler.DismissAlarm)
		api.POST("/workshops/:id/live/complete", liveHandler.Complete)

		// Blog CMS
		api.GET("/blog/posts", blogHandler.ListAdmin)
		api.POST("/blog/posts", blogHandler.Create)
		api.GET("/blog/posts/:id", blogHandler.GetByID)
		api.PATCH("/blog/posts/:id", blogHandler.Update)
		api.DELETE("/blog/posts/:id", blogHandler.Delete)
		api.POST("/blog/posts/:id/publish", blogHandler.SetPublished(true))
		api.POST("/blog/posts/:id/unpublish", blogHandler.SetPublished(false))
		api.POST("/blog/posts/:id/cover", blogHandler.CoverUploadURL)

		// Reviews
		api.GET("/reviews", reviewHandler.List)
		api.POST("/workshops/:id/review_request", reviewHandler.Request)
		api.GET("/workshops/:id/email_logs", reviewHandler.EmailLogs)
		api.POST("/reviews/:id/approve", reviewHandler.SetApproved(true))
		api.POST("/reviews/:id/unapprove", reviewHandler.SetApproved(false))
		api.POST("/reviews/:id/feature", reviewHandler.SetFeatured(true))
		api.POST("/reviews/:id/unfeature", reviewHandler.SetFeatured(false))
	}

	// WebSocket (token or pincode in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, manager, jwtValidate, realtime.PincodeResolver(resolvePincode), logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
