package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shido75/Spectrasynth-CRM/internal/config"
	"github.com/Shido75/Spectrasynth-CRM/internal/entity"
	"github.com/Shido75/Spectrasynth-CRM/internal/handler"
	"github.com/Shido75/Spectrasynth-CRM/internal/mail"
	"github.com/Shido75/Spectrasynth-CRM/internal/middleware"
	"github.com/Shido75/Spectrasynth-CRM/internal/pdf"
	"github.com/Shido75/Spectrasynth-CRM/internal/repository"
	"github.com/Shido75/Spectrasynth-CRM/internal/service"
	"github.com/Shido75/Spectrasynth-CRM/internal/storage"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	envFile := config.GetEnvOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s not found, using environment variables", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting spectrasynth-crm service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&entity.Inquiry{},
		&entity.InquiryProduct{},
		&entity.Quotation{},
		&entity.QuotationProduct{},
		&entity.QuotationRevision{},
		&entity.QuotationRevised{},
		&entity.Product{},
		&entity.ProductPrice{},
		&entity.PurchaseOrder{},
		&entity.User{},
		&entity.UserRole{},
		&entity.Permission{},
	); err != nil {
		zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
	}
	// AutoMigrate cannot express a partial index; one live (non-cancelled) PO
	// per quotation is enforced here.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_purchase_orders_live_quotation " +
			"ON purchase_orders (quotation_number) WHERE po_status <> 'cancel'",
	).Error; err != nil {
		zapLogger.Fatal("Index migration failed", zap.Error(err))
	}
	zapLogger.Info("Database migration completed")

	rdb := initRedis(cfg.Redis)

	artifacts, err := storage.NewArtifactStore(
		context.Background(),
		cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey,
		cfg.MinIO.Bucket, cfg.Upload.Root, cfg.MinIO.UseSSL,
	)
	if err != nil {
		zapLogger.Warn("Object storage unavailable, archival disabled", zap.Error(err))
	}

	renderer := pdf.NewRenderer(cfg.Upload.Root, zapLogger)
	mailer := mail.NewMailer(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.From, cfg.SMTP.Timeout, zapLogger,
	)

	repos := repository.NewRepositories(db)
	services := service.NewServices(service.Options{
		DB:            db,
		Repos:         repos,
		Renderer:      renderer,
		Mailer:        mailer,
		Artifacts:     artifacts,
		Redis:         rdb,
		Logger:        zapLogger,
		UploadRoot:    cfg.Upload.Root,
		RenderTimeout: cfg.Upload.RenderTimeout,
		JWTSecret:     cfg.JWT.Secret,
		AccessTTL:     cfg.JWT.AccessTokenExpire,
		RefreshTTL:    cfg.JWT.RefreshTokenExpire,
	})
	handlers := handler.NewHandlers(services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	registerRoutes(router, handlers, services)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Reminder sweep runs until shutdown.
	reminderCtx, stopReminders := context.WithCancel(context.Background())
	go runReminderLoop(reminderCtx, services.Quotation, cfg.Reminder.Interval, zapLogger)

	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")
	stopReminders()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
}

func runReminderLoop(ctx context.Context, svc *service.QuotationService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := svc.ProcessDueReminders(ctx, now); err != nil {
				logger.Error("Reminder sweep failed", zap.Error(err))
			}
		}
	}
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}

	return zapCfg.Build()
}

func initDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	if cfg.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, svc *service.Services) {
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// Generated quotation documents.
	r.Static("/uploads", "./uploads")

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(svc.Auth))
		{
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.POST("/auth/logout", h.Auth.Logout)

			gate := func(module, action string) gin.HandlerFunc {
				return middleware.RequireModulePermission(svc.Auth, module, action)
			}

			inquiries := authorized.Group("/inquiries")
			{
				inquiries.POST("", gate(entity.ModuleInquiry, entity.ActionCreate), h.Inquiry.Create)
				inquiries.GET("", gate(entity.ModuleInquiry, entity.ActionRead), h.Inquiry.List)
				inquiries.GET("/processed", gate(entity.ModuleInquiry, entity.ActionRead), h.Inquiry.ListProcessed)
				inquiries.GET("/:number", gate(entity.ModuleInquiry, entity.ActionRead), h.Inquiry.Get)
				inquiries.PUT("/:number", gate(entity.ModuleInquiry, entity.ActionUpdate), h.Inquiry.Update)
				inquiries.PUT("/:number/products", gate(entity.ModuleTechnicalPerson, entity.ActionUpdate), h.Inquiry.UpdateProduct)
				inquiries.POST("/:number/forward", gate(entity.ModuleInquiry, entity.ActionUpdate), h.Inquiry.ForwardStage)
				inquiries.GET("/:number/quotation", gate(entity.ModuleQuotation, entity.ActionRead), h.Inquiry.LatestQuotation)
				inquiries.DELETE("/:number", gate(entity.ModuleInquiry, entity.ActionDelete), h.Inquiry.Delete)
			}

			quotations := authorized.Group("/quotations")
			{
				quotations.POST("", gate(entity.ModuleQuotation, entity.ActionCreate), h.Quotation.Create)
				quotations.GET("", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.List)
				quotations.GET("/processed", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.ListProcessed)
				quotations.GET("/:number", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.Get)
				quotations.PUT("/:number", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.Update)
				quotations.POST("/:number/finalise", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.Finalise)
				quotations.POST("/:number/email", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.SendEmail)
				quotations.POST("/:number/revisions", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.CreateRevision)
				quotations.GET("/:number/revisions", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.ListRevisions)
				quotations.GET("/:number/revisions/log", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.FieldLog)
				quotations.GET("/:number/document", gate(entity.ModuleQuotation, entity.ActionRead), h.Quotation.DocumentURL)
				quotations.POST("/:number/reminder", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.SetReminder)
				quotations.DELETE("/:number/reminder", gate(entity.ModuleQuotation, entity.ActionUpdate), h.Quotation.StopReminder)
				quotations.DELETE("/:number", gate(entity.ModuleQuotation, entity.ActionDelete), h.Quotation.Delete)
			}

			products := authorized.Group("/products")
			{
				products.GET("/prices", gate(entity.ModuleCompanyPrice, entity.ActionRead), h.Product.ListPrices)
				products.POST("/prices", gate(entity.ModuleCompanyPrice, entity.ActionCreate), h.Product.SetPrice)
				products.DELETE("/prices/:id", gate(entity.ModuleCompanyPrice, entity.ActionDelete), h.Product.DeletePrice)
				products.GET("/export", gate(entity.ModuleProduct, entity.ActionRead), h.Product.Export)
				products.POST("/import", gate(entity.ModuleProduct, entity.ActionCreate), h.Product.Import)

				products.POST("", gate(entity.ModuleProduct, entity.ActionCreate), h.Product.Create)
				products.GET("", gate(entity.ModuleProduct, entity.ActionRead), h.Product.List)
				products.GET("/:id", gate(entity.ModuleProduct, entity.ActionRead), h.Product.Get)
				products.PUT("/:id", gate(entity.ModuleProduct, entity.ActionUpdate), h.Product.Update)
				products.DELETE("/:id", gate(entity.ModuleProduct, entity.ActionDelete), h.Product.Delete)
			}

			pos := authorized.Group("/purchase-orders")
			{
				pos.POST("", gate(entity.ModulePurchaseOrder, entity.ActionCreate), h.PO.Create)
				pos.GET("", gate(entity.ModulePurchaseOrder, entity.ActionRead), h.PO.List)
				pos.GET("/:number", gate(entity.ModulePurchaseOrder, entity.ActionRead), h.PO.Get)
				pos.POST("/:number/confirm", gate(entity.ModulePurchaseOrder, entity.ActionUpdate), h.PO.Confirm)
				pos.POST("/:number/cancel", gate(entity.ModulePurchaseOrder, entity.ActionUpdate), h.PO.Cancel)
			}

			users := authorized.Group("/users")
			{
				users.POST("", gate(entity.ModuleUsers, entity.ActionCreate), h.User.Create)
				users.GET("", gate(entity.ModuleUsers, entity.ActionRead), h.User.List)
				users.GET("/:id", gate(entity.ModuleUsers, entity.ActionRead), h.User.Get)
				users.PUT("/:id", gate(entity.ModuleUsers, entity.ActionUpdate), h.User.Update)
				users.DELETE("/:id", gate(entity.ModuleUsers, entity.ActionDelete), h.User.Delete)
				users.GET("/:id/permissions", gate(entity.ModuleUsers, entity.ActionRead), h.User.GetPermissions)
				users.PUT("/:id/permissions", gate(entity.ModuleUsers, entity.ActionUpdate), h.User.SetPermissions)
			}
		}
	}
}
