package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addBlockedRangeHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/add_blocked_range"
	createBookingHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/create_booking"
	deleteAccountHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/delete_account"
	deleteBookingHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/delete_booking"
	getAvailabilityHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_availability"
	getAvailableSlotsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_available_slots"
	getBillingReportHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_billing_report"
	getBookingHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_booking"
	getNotificationsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_notifications"
	getSettingsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_settings"
	getTeacherBookingsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_teacher_bookings"
	getUserBookingsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/get_user_bookings"
	markNotificationReadHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/mark_notification_read"
	removeBlockedRangeHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/remove_blocked_range"
	setDayAvailabilityHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/set_day_availability"
	streamEventsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/stream_events"
	sweepBookingsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/sweep_bookings"
	updateBookingStatusHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/update_booking_status"
	updateSettingsHandler "github.com/m04kA/SMC-TutorBooking/internal/api/handlers/update_settings"
	"github.com/m04kA/SMC-TutorBooking/internal/api/middleware"
	"github.com/m04kA/SMC-TutorBooking/internal/config"
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/infra/migrations"
	availabilityRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/availability"
	bookingRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/booking"
	notificationRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/notification"
	settingsRepo "github.com/m04kA/SMC-TutorBooking/internal/infra/storage/settings"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/accounts"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/changefeed"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/identity"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/mailer"
	"github.com/m04kA/SMC-TutorBooking/internal/resolver"
	availabilityService "github.com/m04kA/SMC-TutorBooking/internal/service/availability"
	billingService "github.com/m04kA/SMC-TutorBooking/internal/service/billing"
	bookingsService "github.com/m04kA/SMC-TutorBooking/internal/service/bookings"
	notificationsService "github.com/m04kA/SMC-TutorBooking/internal/service/notifications"
	settingsService "github.com/m04kA/SMC-TutorBooking/internal/service/settings"
	createBookingUC "github.com/m04kA/SMC-TutorBooking/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-TutorBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-TutorBooking/internal/worker/sweeper"
	"github.com/m04kA/SMC-TutorBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
	"github.com/m04kA/SMC-TutorBooking/pkg/metrics"
	"github.com/m04kA/SMC-TutorBooking/pkg/txmanager"
)

// Publisher общий интерфейс локальной и Redis ленты изменений
type Publisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-TutorBooking...")
	log.Info("Configuration loaded from config.toml")

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal("Invalid timezone %q: %v", cfg.App.Timezone, err)
	}
	teacherID, err := cfg.App.TeacherUUID()
	if err != nil {
		log.Fatal("Invalid teacher_id %q: %v", cfg.App.TeacherID, err)
	}

	// Контекст фоновых задач (лента изменений, инвалидация кэша, автозавершение)
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var dbCollector dbmetrics.Collector
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		dbCollector = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Применяем миграции
	if cfg.Database.AutoMigrate {
		migrator, err := migrations.NewMigrator(db, log)
		if err != nil {
			log.Fatal("Failed to init migrator: %v", err)
		}
		if err := migrator.Up(appCtx); err != nil {
			log.Fatal("Failed to apply migrations: %v", err)
		}
	}

	// Без коллектора обертка только передает запросы и транзакции дальше
	wrappedDB := dbmetrics.WrapWithDefault(db, dbCollector, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	settingsRepository := settingsRepo.NewRepository(wrappedDB)
	availabilityRepository := availabilityRepo.NewRepository(wrappedDB)
	notificationRepository := notificationRepo.NewRepository(wrappedDB)

	slotResolver := resolver.New(loc)

	// Лента изменений: Redis pub/sub между репликами или локальная раздача в одном процессе
	hub := changefeed.NewHub()
	var publisher Publisher
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		feed := changefeed.NewRedisFeed(redisClient, cfg.Redis.Channel, hub, metricsCollector, log)
		if err := feed.Ping(appCtx); err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		go func() {
			if err := feed.Run(appCtx); err != nil {
				log.Error("Change feed stopped: %v", err)
			}
		}()
		publisher = feed
		log.Info("Change feed: redis channel=%s", cfg.Redis.Channel)
	} else {
		publisher = changefeed.NewLocalFeed(hub)
		log.Info("Change feed: in-process only")
	}

	// Инициализируем интеграционных клиентов
	accountsClient := accounts.NewClient(
		cfg.Accounts.URL,
		time.Duration(cfg.Accounts.Timeout)*time.Second,
		log,
	)
	mail := mailer.New(cfg.Email.APIKey, cfg.Email.From, cfg.Email.TestMode || !cfg.Email.Enabled, log)
	verifier := identity.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	log.Info("Integration clients initialized (Accounts=%s timeout=%ds, email enabled=%t)",
		cfg.Accounts.URL, cfg.Accounts.Timeout, cfg.Email.Enabled)

	// Инициализируем сервисы
	notificationSvc := notificationsService.NewService(
		notificationRepository,
		accountsClient,
		publisher,
		mail,
		teacherID,
		cfg.App.TeacherEmail,
		log,
	)
	invalidationEvents, unsubscribeInvalidation := hub.Subscribe(nil)
	defer unsubscribeInvalidation()
	go notificationSvc.RunInvalidation(appCtx, invalidationEvents)

	bookingSvc := bookingsService.NewService(
		bookingRepository,
		settingsRepository,
		slotResolver,
		notificationSvc,
		publisher,
		metricsCollector,
		teacherID,
		log,
	)
	settingsSvc := settingsService.NewService(settingsRepository, log)
	availabilitySvc := availabilityService.NewService(availabilityRepository, txMgr, log)
	billingSvc := billingService.NewService(bookingRepository, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(createBookingUC.Deps{
		BookingRepo:      bookingRepository,
		SettingsRepo:     settingsRepository,
		AvailabilityRepo: availabilityRepository,
		Validator:        slotResolver,
		Accounts:         accountsClient,
		Notifier:         notificationSvc,
		Publisher:        publisher,
		Metrics:          metricsCollector,
		TxManager:        txMgr,
	}, teacherID, log)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		settingsRepository,
		availabilityRepository,
		slotResolver,
		log,
	)

	// Автозавершение прошедших уроков
	var sweep *sweeper.Sweeper
	if cfg.Sweep.Enabled {
		sweep = sweeper.New(bookingSvc, time.Duration(cfg.Sweep.Interval)*time.Second, log)
		sweep.Start(appCtx)
	}

	// Инициализируем handlers
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getAvailability := getAvailabilityHandler.NewHandler(availabilitySvc, log)
	setDayAvailability := setDayAvailabilityHandler.NewHandler(availabilitySvc, log)
	addBlockedRange := addBlockedRangeHandler.NewHandler(availabilitySvc, log)
	removeBlockedRange := removeBlockedRangeHandler.NewHandler(availabilitySvc, log)
	getSettings := getSettingsHandler.NewHandler(settingsSvc, log)
	updateSettings := updateSettingsHandler.NewHandler(settingsSvc, log)
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	deleteBooking := deleteBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getTeacherBookings := getTeacherBookingsHandler.NewHandler(bookingSvc, log)
	sweepBookings := sweepBookingsHandler.NewHandler(bookingSvc, log)
	getBillingReport := getBillingReportHandler.NewHandler(billingSvc, log)
	getNotifications := getNotificationsHandler.NewHandler(notificationSvc, log)
	markNotificationRead := markNotificationReadHandler.NewHandler(notificationSvc, log)
	streamEvents := streamEventsHandler.NewHandler(hub, log)
	deleteAccount := deleteAccountHandler.NewHandler(accountsClient, log)

	auth := middleware.NewAuth(verifier, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware и endpoint (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/settings", getSettings.Handle).Methods(http.MethodGet)

	// ============================================================
	// AUTHENTICATED ROUTES (Bearer JWT)
	// ============================================================

	// Лента событий: EventSource не шлет заголовки, токен допускается в query
	api.Handle("/events", auth.RequiredForStream(http.HandlerFunc(streamEvents.Handle))).Methods(http.MethodGet)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(auth.Required)

	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	// Права на переход проверяются по таблице переходов в сервисе
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/notifications", getNotifications.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/notifications/{notificationId}/read", markNotificationRead.Handle).Methods(http.MethodPatch)

	// --- Ученик ---
	student := protected.PathPrefix("").Subrouter()
	student.Use(middleware.RequireStudent)

	var createBookingRoute http.Handler = http.HandlerFunc(createBooking.Handle)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
		createBookingRoute = limiter.Middleware(createBookingRoute)
		log.Info("Rate limit on POST /bookings: rps=%.2f burst=%d",
			cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	student.Handle("/bookings", createBookingRoute).Methods(http.MethodPost)
	student.HandleFunc("/me/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	student.HandleFunc("/me", deleteAccount.Handle).Methods(http.MethodDelete)

	// --- Преподаватель ---
	teacher := protected.PathPrefix("").Subrouter()
	teacher.Use(middleware.RequireTeacher)

	teacher.HandleFunc("/availability/days/{dayOfWeek}", setDayAvailability.Handle).Methods(http.MethodPut)
	teacher.HandleFunc("/availability/blocked-ranges", addBlockedRange.Handle).Methods(http.MethodPost)
	teacher.HandleFunc("/availability/blocked-ranges/{rangeId}", removeBlockedRange.Handle).Methods(http.MethodDelete)
	teacher.HandleFunc("/settings", updateSettings.Handle).Methods(http.MethodPut)
	teacher.HandleFunc("/bookings/{bookingId}", deleteBooking.Handle).Methods(http.MethodDelete)
	teacher.HandleFunc("/teacher/bookings", getTeacherBookings.Handle).Methods(http.MethodGet)
	teacher.HandleFunc("/teacher/sweep", sweepBookings.Handle).Methods(http.MethodPost)
	teacher.HandleFunc("/billing", getBillingReport.Handle).Methods(http.MethodGet)
	teacher.HandleFunc("/billing/export", getBillingReport.HandleExport).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		// SSE-потоки завершаются вместе с фоновыми задачами
		BaseContext: func(_ net.Listener) context.Context { return appCtx },
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sweep != nil {
		sweep.Stop()
	}

	// Закрываем SSE-потоки и подписки ленты изменений
	stopApp()

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
