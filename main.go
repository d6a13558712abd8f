package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"waz-calendar/internal/auth"
	"waz-calendar/internal/bus"
	"waz-calendar/internal/config"
	"waz-calendar/internal/db"
	"waz-calendar/internal/handlers"
	"waz-calendar/internal/middleware"
	"waz-calendar/internal/models"
	"waz-calendar/internal/observability"
	"waz-calendar/internal/rabbitmq"
	"waz-calendar/internal/repositories"
	"waz-calendar/internal/scheduler"
	"waz-calendar/internal/services"
	"waz-calendar/internal/store"
	"waz-calendar/internal/telemetry"
	"waz-calendar/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	var database *sqlx.DB
	if cfg.NeedsDatabase() {
		database, err = db.Connect(cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("failed to connect to db: %v", err)
		}
		defer database.Close()
	}

	objects, err := openStore(ctx, cfg, database)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StoreBackend, err)
	}
	objects = store.Instrument(string(cfg.StoreBackend), objects)

	var index repositories.UsernameIndex
	switch cfg.UsernameIndex {
	case config.IndexMemory:
		index = repositories.NewMemoryIndex()
	case config.IndexPostgres:
		index = repositories.NewPostgresIndex(database)
	}
	directory := repositories.NewAccountDir(objects, index)
	if index != nil {
		indexed, err := directory.Rebuild(ctx)
		if err != nil {
			log.Fatalf("failed to build username index: %v", err)
		}
		log.Printf("username index ready mode=%s accounts=%d", cfg.UsernameIndex, indexed)
	}

	broker := rabbitmq.Dial(cfg.AMQPURL, cfg.ServiceName)
	defer broker.Close()
	eventsPublisher := broker.Exchange(cfg.AMQPExchange)
	defer eventsPublisher.Close()
	auditPublisher := broker.Exchange(cfg.AuditExchange)
	defer auditPublisher.Close()
	log.Printf("publishers events=%s audit=%s", rabbitmq.PublisherMode(eventsPublisher), rabbitmq.PublisherMode(auditPublisher))
	for _, p := range []rabbitmq.Publisher{eventsPublisher, auditPublisher} {
		if reason := rabbitmq.PublisherNoopReason(p); reason != "" {
			log.Printf("publisher noop reason=%q", reason)
		}
	}
	observability.SetEventSink(eventsPublisher)
	audit := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRouting, cfg.ServiceName, cfg.Environment)

	hub := ws.NewHub()
	messages := bus.New()
	messages.Subscribe(hub.Deliver)
	messages.Subscribe(rabbitmq.NewForwarder(eventsPublisher, "calendar").Handle)

	authenticator := auth.NewController(directory, auth.NewPasswordHasher(cfg.BcryptCost), []byte(cfg.SessionSecret), cfg.SessionTTL)
	notifications := services.NewNotificationManager(directory, messages)
	events := services.NewEventManager(directory, messages)
	friends := services.NewFriendManager(directory, messages)
	chats := services.NewChatManager(directory, repositories.NewChatRepo(objects, models.MaxChatHistory), notifications, messages)
	backgrounds := services.NewBackgroundManager(objects)
	reminders := services.NewReminderManager(directory, messages, cfg.Location())

	jobs := scheduler.New(cfg.Location())
	if cfg.RemindersEnabled() {
		if err := jobs.Add("reminders", cfg.ReminderSchedule, scheduler.ReminderJob(reminders, time.Now)); err != nil {
			log.Fatalf("failed to schedule reminders: %v", err)
		}
	}
	if err := jobs.Add("unread_refresh", cfg.RefreshSchedule, scheduler.UnreadRefreshJob(hub, notifications, messages)); err != nil {
		log.Fatalf("failed to schedule unread refresh: %v", err)
	}
	jobs.Start()
	defer jobs.Stop()

	authHandler := handlers.NewAuthHandler(authenticator, audit)
	eventHandler := handlers.NewEventHandler(events)
	calendarHandler := handlers.NewCalendarHandler(events, backgrounds)
	friendHandler := handlers.NewFriendHandler(friends)
	chatHandler := handlers.NewChatHandler(chats)
	notificationHandler := handlers.NewNotificationHandler(notifications)
	wsHandler := ws.NewHandler(hub, authenticator)

	router := gin.New()

	// middlewares
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(authenticator)

	router.GET("/healthz", handlers.Health(string(cfg.StoreBackend)))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, handlers.DebugTools{Audit: audit, Reminders: reminders, Online: hub}, cfg.DebugRoutes)

	router.POST("/auth/signup", authHandler.Signup)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/logout", authHandler.Logout)
	router.GET("/auth/session", authHandler.Session)

	router.GET("/events", authMiddleware, eventHandler.List)
	router.POST("/events", authMiddleware, eventHandler.Create)
	router.PUT("/events/:event_id", authMiddleware, eventHandler.Update)
	router.DELETE("/events/:event_id", authMiddleware, eventHandler.Delete)
	router.POST("/events/:event_id/share", authMiddleware, eventHandler.Share)

	router.GET("/calendar/export.ics", authMiddleware, calendarHandler.ExportICS)
	router.GET("/calendar/background", authMiddleware, calendarHandler.Background)

	router.GET("/friends", authMiddleware, friendHandler.List)
	router.GET("/friends/search", authMiddleware, friendHandler.Search)
	router.GET("/friends/requests", authMiddleware, friendHandler.Requests)
	router.POST("/friends/requests", authMiddleware, friendHandler.SendRequest)
	router.POST("/friends/requests/:notification_id/accept", authMiddleware, friendHandler.Accept)
	router.POST("/friends/requests/:notification_id/reject", authMiddleware, friendHandler.Reject)
	router.DELETE("/friends/:username", authMiddleware, friendHandler.Remove)

	router.GET("/chats", authMiddleware, chatHandler.Conversations)
	router.GET("/chats/:username/messages", authMiddleware, chatHandler.History)
	router.POST("/chats/:username/messages", authMiddleware, chatHandler.Send)
	router.POST("/chats/:username/schedules", authMiddleware, chatHandler.ShareSchedule)

	router.GET("/notifications", authMiddleware, notificationHandler.List)
	router.GET("/notifications/unread-count", authMiddleware, notificationHandler.UnreadCount)
	router.POST("/notifications/read", authMiddleware, notificationHandler.MarkAllRead)
	router.POST("/notifications/:notification_id/read", authMiddleware, notificationHandler.MarkRead)
	router.DELETE("/notifications/:notification_id", authMiddleware, notificationHandler.Delete)

	router.GET("/ws", wsHandler.Handle)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}
	go func() {
		log.Printf("waz-calendar listening port=%s store=%s index=%s", cfg.Port, cfg.StoreBackend, cfg.UsernameIndex)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config, database *sqlx.DB) (store.ObjectStore, error) {
	switch cfg.StoreBackend {
	case config.BackendGitHub:
		return store.NewGitHubStore(ctx, store.GitHubConfig{
			BaseURL: cfg.GitHubAPIURL,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Token:   cfg.GitHubToken,
			Timeout: cfg.HTTPTimeout,
		}), nil
	case config.BackendPostgres:
		return store.NewPostgresStore(database), nil
	default:
		return store.OpenGitStore(cfg.GitRepoPath, cfg.GitAuthorName, cfg.GitAuthorEmail)
	}
}
