package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/binaa-tech/binaa/internal/config"
	"github.com/binaa-tech/binaa/internal/middleware"
	"github.com/binaa-tech/binaa/internal/procurement/entity"
	"github.com/binaa-tech/binaa/internal/procurement/handler"
	"github.com/binaa-tech/binaa/internal/procurement/repository"
	"github.com/binaa-tech/binaa/internal/procurement/service"
	"github.com/binaa-tech/binaa/internal/shared/notify"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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
	// 本地开发从.env读环境变量
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting binaa procurement service",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	// 初始化数据库
	db, err := initDatabase(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// 初始化Redis
	rdb := initRedis(cfg.Redis)

	// 初始化依赖
	repos := repository.NewRepositories(db)

	if err := seedAdmin(repos, cfg, zapLogger); err != nil {
		zapLogger.Fatal("Failed to seed admin user", zap.Error(err))
	}

	ledgerSvc := service.NewLedgerService(repos.BOQ)
	requestSvc := service.NewRequestService(repos, zapLogger)
	procurementSvc := service.NewProcurementService(repos, ledgerSvc, db, zapLogger)
	quotationSvc := service.NewQuotationService(repos, procurementSvc, zapLogger)
	invoiceSvc := service.NewInvoiceService(repos, zapLogger)
	masterdataSvc := service.NewMasterDataService(repos, zapLogger)
	authSvc := service.NewAuthService(repos.User, rdb, cfg)

	if cfg.Notify.SupplierWebhookURL != "" {
		procurementSvc.SetNotifier(notify.NewClient(cfg.Notify.SupplierWebhookURL, cfg.Notify.Timeout))
	}

	handlers := handler.NewHandlers(authSvc, requestSvc, procurementSvc, quotationSvc, invoiceSvc, masterdataSvc, ledgerSvc)

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(zapLogger))
	router.Use(middleware.CORS())
	router.Use(middleware.RequestID())
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// 注册路由
	registerRoutes(router, handlers, cfg)

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	go func() {
		zapLogger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exited")
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
		Logger: logger.Default.LogMode(logger.Info),
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

	// 建表
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.Project{},
		&entity.ProjectBOQ{},
		&entity.Item{},
		&entity.Supplier{},
		&entity.MaterialRequest{},
		&entity.RequestItem{},
		&entity.PurchaseOrder{},
		&entity.POItem{},
		&entity.Receipt{},
		&entity.ReceiptItem{},
		&entity.RFQ{},
		&entity.Quotation{},
		&entity.Invoice{},
		&entity.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func initRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// seedAdmin 首次启动时创建管理员账号
func seedAdmin(repos *repository.Repositories, cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()
	count, err := repos.User.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := cfg.Admin.Email
	if email == "" {
		email = "admin@binaa.local"
	}
	password := cfg.Admin.Password
	if password == "" {
		password = "ChangeMe123!"
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &entity.User{
		ID:           uuid.New().String()[:32],
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		Status:       "active",
		Permissions:  entity.Permissions{CanEditPrices: true},
	}
	if err := repos.User.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("Seeded admin user", zap.String("email", email))
	return nil
}

func registerRoutes(r *gin.Engine, h *handler.Handlers, cfg *config.Config) {
	// 健康检查
	r.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/health/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 版本信息
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
		})
	})

	// API v1
	v1 := r.Group("/api/v1")
	{
		// 认证 (无需登录)
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(cfg.JWT.Secret))
		{
			// 当前用户
			authorized.GET("/auth/me", h.Auth.Me)

			// 用户管理
			users := authorized.Group("/users")
			users.Use(middleware.RequireRole(entity.RoleGeneralManager))
			{
				users.GET("", h.User.List)
				users.POST("", h.User.Create)
				users.PUT("/:id", h.User.Update)
			}

			// 项目与清单
			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Project.List)
				projects.POST("", h.Project.Create)
				projects.GET("/:id", h.Project.Get)
				projects.GET("/:id/boq", h.Project.ListBOQ)
				projects.PUT("/:id/boq", h.Project.SetBOQLine)
				projects.GET("/:id/boq/:item_id/remaining", h.Project.RemainingQuantity)
			}

			// 物料与供应商
			authorized.GET("/items", h.Catalog.ListItems)
			authorized.POST("/items", h.Catalog.CreateItem)
			authorized.GET("/suppliers", h.Catalog.ListSuppliers)
			authorized.POST("/suppliers", h.Catalog.CreateSupplier)

			// 领料申请
			requests := authorized.Group("/requests")
			{
				requests.GET("", h.Request.List)
				requests.POST("", h.Request.Create)
				requests.GET("/:id", h.Request.Get)
				requests.POST("/:id/submit", h.Request.Submit)
				requests.POST("/:id/approve-technical", h.Request.ApproveTechnical)
				requests.POST("/:id/reject", h.Request.Reject)
			}

			// 询价与报价
			rfqs := authorized.Group("/rfqs")
			{
				rfqs.GET("", h.RFQ.List)
				rfqs.POST("", h.RFQ.Open)
				rfqs.GET("/:id", h.RFQ.Get)
				rfqs.POST("/:id/quotations", h.RFQ.SubmitQuotation)
				rfqs.POST("/:id/quotations/:quotation_id/select", h.RFQ.SelectWinner)
			}

			// 采购订单
			pos := authorized.Group("/purchase-orders")
			{
				pos.GET("", h.PO.List)
				pos.POST("", h.PO.Issue)
				pos.GET("/:id", h.PO.Get)
				pos.POST("/:id/approve", h.PO.Approve)
				pos.PUT("/:id/prices", h.PO.EditPrices)
				pos.POST("/:id/dispatch", h.PO.Dispatch)
				pos.POST("/:id/cancel", h.PO.Cancel)
				pos.POST("/:id/receipts", h.PO.PostReceipt)
			}

			// 收货单
			authorized.GET("/receipts", h.PO.ListReceipts)
			authorized.GET("/receipts/:id", h.PO.GetReceipt)

			// 发票
			invoices := authorized.Group("/invoices")
			{
				invoices.GET("", h.Invoice.List)
				invoices.POST("", h.Invoice.Create)
				invoices.GET("/:id", h.Invoice.Get)
			}
		}
	}
}
