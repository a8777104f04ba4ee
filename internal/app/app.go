package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"shortsale_backend/database"
	"shortsale_backend/internal/config"
	"shortsale_backend/internal/email"
	"shortsale_backend/internal/events"
	"shortsale_backend/internal/handlers"
	"shortsale_backend/internal/logger"
	"shortsale_backend/internal/middleware"
	"shortsale_backend/internal/models"
	"shortsale_backend/internal/notifications"
	"shortsale_backend/internal/push"
	"shortsale_backend/internal/realtime"
	"shortsale_backend/internal/repositories"
	"shortsale_backend/internal/routes"
	"shortsale_backend/internal/services"
	"shortsale_backend/internal/storage"
	"shortsale_backend/internal/tasks"
	"shortsale_backend/internal/validator"
	"shortsale_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Database migration failed", "error", err)
	}

	if err := seedFirstNegotiator(gormDB, cfg); err != nil {
		// Без хотя бы одного негоциатора система бесполезна - не стартуем
		logger.Fatal("Failed to seed first negotiator", "error", err)
	}

	// ctx живет до получения сигнала остановки; на нем висят шина
	// событий, realtime-брокер и фоновый воркер дедлайнов.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Очередь доставки уведомлений. Без Redis строки notifications
	// создаются и копятся со статусом queued, но никуда не уходят.
	redisConfigured := cfg.Redis.Addr != ""
	var (
		distributor *tasks.TaskDistributor
		queue       notifications.DeliveryQueue
	)
	if redisConfigured {
		distributor = tasks.NewTaskDistributor(tasks.RedisOpt(cfg))
		queue = distributor
	} else {
		logger.Warn("Redis is not configured. Notifications will be stored but not delivered.")
		queue = &logDeliveryQueue{}
	}

	bus := events.NewBus()
	broker := realtime.NewBroker()

	ginRouter, serviceContainer := SetupRouter(cfg, gormDB, bus, broker, queue)

	go bus.Run(ctx)
	go broker.Run(ctx)
	workers.NewDocumentRequestWorker(gormDB).Start(ctx)

	var wg sync.WaitGroup

	// Воркер очереди и планировщик дайджеста поднимаются только вместе
	// с Redis: без него asynq-клиент падал бы в retry-цикл на старте.
	var (
		taskServer *asynq.Server
		scheduler  *asynq.Scheduler
	)
	if redisConfigured {
		emailProvider := email.NewProvider(email.Config{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
		})
		pushSender := push.NewSender(ctx, cfg.Push.CredentialsFile)

		processor := tasks.NewTaskProcessor(
			gormDB,
			emailProvider,
			pushSender,
			repositories.NewNotificationRepository(),
			repositories.NewAccessTokenRepository(),
			repositories.NewUserRepository(),
			serviceContainer.DigestService,
		)

		srv, mux := tasks.NewServer(tasks.RedisOpt(cfg), processor)
		taskServer = srv

		scheduler, err = tasks.NewScheduler(tasks.RedisOpt(cfg), cfg.Digest.Cron)
		if err != nil {
			logger.Fatal("Failed to configure digest scheduler", "error", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("Task server starting", "redis", cfg.Redis.Addr)
			if err := taskServer.Run(mux); err != nil {
				logger.Fatal("Task server error", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Run(); err != nil {
				logger.Fatal("Digest scheduler error", "error", err)
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    address,
		Handler: ginRouter,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info(fmt.Sprintf("🚀 Server starting on %s", address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	// Сначала перестаем принимать HTTP, потом гасим очередь. Задачи,
	// не успевшие за 15 секунд, вернутся в очередь и доедут после
	// рестарта.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}
	if distributor != nil {
		if err := distributor.Close(); err != nil {
			logger.Error("Task distributor close error", "error", err)
		}
	}
	cancel()
	wg.Wait()
	logger.Info("Server stopped")
}

// SetupRouter собирает HTTP-часть приложения: хранилище, сервисы,
// хэндлеры, realtime и маршруты. Вынесено из Run, чтобы интеграционные
// тесты могли поднять полный роутер на своей шине и очереди.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB, bus *events.Bus, broker *realtime.Broker, queue notifications.DeliveryQueue) (*gin.Engine, *services.ServiceContainer) {
	storageInstance, err := storage.NewStorage(storage.Config{
		Type:       cfg.Storage.Type,
		BasePath:   cfg.Storage.BasePath,
		BaseURL:    cfg.Storage.BaseURL,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Endpoint:   cfg.Storage.Endpoint,
		UseSSL:     cfg.Storage.UseSSL,
		PublicRead: cfg.Storage.PublicRead,
	})
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	logger.Info("Storage initialized", "type", cfg.Storage.Type)

	serviceContainer := initializeServices(storageInstance, bus)

	// Диспетчер уведомлений и realtime-брокер слушают одну шину:
	// первый раскладывает события по строкам notifications, второй
	// шлет кадры в открытые WebSocket-соединения.
	dispatcher := notifications.NewDispatcher(
		gormDB,
		repositories.NewPartyRepository(),
		repositories.NewAccessTokenRepository(),
		repositories.NewNotificationRepository(),
		repositories.NewUserRepository(),
		queue,
	)
	bus.Subscribe(dispatcher.HandleEvent)
	bus.Subscribe(broker.HandleEvent)

	appHandlers := initializeHandlers(serviceContainer, storageInstance)

	rtHandler := realtime.NewHandler(broker, repositories.NewTransactionRepository(), repositories.NewPartyRepository())

	ginRouter := initializeGinRouter(gormDB)

	routes.RegisterRoutes(ginRouter, appHandlers, rtHandler, serviceContainer.AccessTokenService)

	return ginRouter, serviceContainer
}

func initializeServices(storageInstance storage.Storage, bus *events.Bus) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository()
	txRepo := repositories.NewTransactionRepository()
	partyRepo := repositories.NewPartyRepository()
	tokenRepo := repositories.NewAccessTokenRepository()
	requestRepo := repositories.NewDocumentRequestRepository()
	historyRepo := repositories.NewPhaseHistoryRepository()
	messageRepo := repositories.NewMessageRepository()
	uploadRepo := repositories.NewUploadRepository()
	notificationRepo := repositories.NewNotificationRepository()

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewAccessTokenService(tokenRepo, txRepo, partyRepo, requestRepo, messageRepo, userRepo)
	transactionService := services.NewTransactionService(txRepo, partyRepo, requestRepo, historyRepo, messageRepo, bus)
	partyService := services.NewPartyService(txRepo, partyRepo, userRepo, tokenService, bus)
	requestService := services.NewDocumentRequestService(txRepo, partyRepo, requestRepo, bus)
	messageService := services.NewMessageService(txRepo, partyRepo, messageRepo, userRepo, bus)
	uploadService := services.NewUploadService(txRepo, partyRepo, requestRepo, uploadRepo, userRepo, storageInstance)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	digestService := services.NewDigestService(txRepo, historyRepo, requestRepo, messageRepo, tokenService)

	return &services.ServiceContainer{
		AuthService:            authService,
		TransactionService:     transactionService,
		PartyService:           partyService,
		DocumentRequestService: requestService,
		MessageService:         messageService,
		AccessTokenService:     tokenService,
		UploadService:          uploadService,
		NotificationService:    notificationService,
		DigestService:          digestService,
	}
}

func initializeHandlers(serviceContainer *services.ServiceContainer, storageInstance storage.Storage) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:            handlers.NewAuthHandler(baseHandler, serviceContainer.AuthService),
		TransactionHandler:     handlers.NewTransactionHandler(baseHandler, serviceContainer.TransactionService, serviceContainer.AccessTokenService),
		PartyHandler:           handlers.NewPartyHandler(baseHandler, serviceContainer.PartyService),
		DocumentRequestHandler: handlers.NewDocumentRequestHandler(baseHandler, serviceContainer.DocumentRequestService),
		MessageHandler:         handlers.NewMessageHandler(baseHandler, serviceContainer.MessageService),
		UploadHandler:          handlers.NewUploadHandler(baseHandler, serviceContainer.UploadService),
		TrackerHandler: handlers.NewTrackerHandler(
			baseHandler,
			serviceContainer.AccessTokenService,
			serviceContainer.MessageService,
			serviceContainer.DocumentRequestService,
			serviceContainer.UploadService,
		),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, serviceContainer.NotificationService),
		FileHandler: handlers.NewFileHandler(
			baseHandler,
			storageInstance,
			repositories.NewUploadRepository(),
			repositories.NewTransactionRepository(),
			serviceContainer.AccessTokenService,
		),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstNegotiator(db *gorm.DB, cfg *config.Config) error {
	seedEmail := cfg.FirstNegotiatorEmail
	seedPassword := cfg.FirstNegotiatorPassword

	if seedEmail == "" || seedPassword == "" {
		logger.Warn("FIRST_NEGOTIATOR_EMAIL or FIRST_NEGOTIATOR_PASSWORD is not set. Skipping negotiator seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var existing models.User
	result := tx.Where("email = ?", seedEmail).First(&existing)

	if result.Error == nil {
		logger.Info("Negotiator account already exists. Skipping creation.", "email", seedEmail)
		tx.Rollback()
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for negotiator account: %w", result.Error)
	}

	logger.Warn("No account found with specified email. Creating first negotiator...", "email", seedEmail)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash negotiator password: %w", err)
	}

	name := cfg.FirstNegotiatorName
	if name == "" {
		name = "Negotiator"
	}

	negotiator := &models.User{
		Email:        seedEmail,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleNegotiator,
	}

	if err := tx.Create(negotiator).Error; err != nil {
		return fmt.Errorf("failed to create negotiator in database: %w", err)
	}

	logger.Info("✅ Successfully created first negotiator", "email", seedEmail)

	return tx.Commit().Error
}
