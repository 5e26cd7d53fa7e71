package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdfund-backend/config"
	"crowdfund-backend/internal/api/admin"
	"crowdfund-backend/internal/api/donation"
	"crowdfund-backend/internal/api/payout"
	"crowdfund-backend/internal/api/project"
	"crowdfund-backend/internal/api/user"
	"crowdfund-backend/internal/api/verification"
	"crowdfund-backend/internal/middleware"
	"crowdfund-backend/internal/payment"
	"crowdfund-backend/internal/repository/mysql"
	"crowdfund-backend/internal/service"
	"crowdfund-backend/internal/storage"
	"crowdfund-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

func main() {
	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 连接数据库
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	util.Logger.Info("数据库连接成功")

	// 初始化文件存储后端
	fileStorage := initStorage()

	// 初始化支付网关
	gateway := payment.NewMidtransGateway(
		config.AppConfig.MidtransServerKey,
		config.AppConfig.MidtransProduction)

	// 初始化存储库
	userRepo := mysql.NewUserRepository(db)
	projectRepo := mysql.NewProjectRepository(db)
	donationRepo := mysql.NewDonationRepository(db)
	payoutRepo := mysql.NewPayoutRepository(db)
	verificationRepo := mysql.NewVerificationRepository(db)

	// 初始化服务
	emailService := service.NewEmailService(userRepo)
	userService := service.NewUserService(userRepo)
	projectService := service.NewProjectService(projectRepo, emailService)
	donationService := service.NewDonationService(donationRepo, projectRepo, gateway)
	payoutService := service.NewPayoutService(payoutRepo, projectRepo, emailService)
	verificationService := service.NewVerificationService(verificationRepo, fileStorage, emailService)

	// 初始化处理器
	errorMonitor := middleware.NewErrorMonitor()
	authHandler := user.NewAuthHandler(userService)
	projectHandler := project.NewProjectHandler(projectService)
	donationHandler := donation.NewDonationHandler(donationService)
	payoutHandler := payout.NewPayoutHandler(payoutService)
	verificationHandler := verification.NewVerificationHandler(verificationService)
	adminHandler := admin.NewAdminHandler(projectService, payoutService,
		donationService, verificationService, errorMonitor)

	// 设置 Gin 路由
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// 认证
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/login-admin", authHandler.AdminLogin)
		api.GET("/auth/me", middleware.AuthMiddleware(), authHandler.Me)

		// 项目：公开读取，写操作需要登录
		api.GET("/projects", projectHandler.ListPublic)
		api.GET("/projects/:id", projectHandler.GetByID)
		api.POST("/projects", middleware.AuthMiddleware(), projectHandler.Create)
		api.GET("/projects/mine", middleware.AuthMiddleware(), projectHandler.ListMine)
		api.PUT("/projects/:id", middleware.AuthMiddleware(), projectHandler.Update)
		api.PUT("/projects/:id/close", middleware.AuthMiddleware(), projectHandler.Close)
		api.GET("/projects/:id/payouts", middleware.AuthMiddleware(), payoutHandler.Overview)

		// 捐款：无需登录，webhook 由支付网关调用
		api.POST("/donations", donationHandler.Checkout)
		api.POST("/donations/webhook", donationHandler.Webhook)
		api.GET("/donations/finish", donationHandler.Finish)
		api.GET("/donations", donationHandler.ListPublic)
		api.GET("/donations/:order_id", donationHandler.Status)

		// 提现：募捐人侧
		api.POST("/payouts", middleware.AuthMiddleware(), payoutHandler.Request)
		api.GET("/payouts", middleware.AuthMiddleware(), payoutHandler.ListMine)
		api.GET("/payouts/:id", middleware.AuthMiddleware(), payoutHandler.GetByID)
		api.PUT("/payouts/:id/cancel", middleware.AuthMiddleware(), payoutHandler.Cancel)

		// 资质审核：募捐人侧
		api.POST("/verifications", middleware.AuthMiddleware(), verificationHandler.Upload)
		api.GET("/verifications/status", middleware.AuthMiddleware(), verificationHandler.Status)

		// 管理员路由组
		adminRoutes := api.Group("/admin")
		adminRoutes.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			adminRoutes.GET("/projects/pending", adminHandler.ListPendingProjects)
			adminRoutes.PUT("/projects/:id/activate", adminHandler.ActivateProject)
			adminRoutes.PUT("/projects/:id/reject", adminHandler.RejectProject)
			adminRoutes.PUT("/projects/:id/close", adminHandler.CloseProject)

			adminRoutes.GET("/payouts/pending", adminHandler.ListPendingPayouts)
			adminRoutes.PUT("/payouts/:id/approve", adminHandler.ApprovePayout)
			adminRoutes.PUT("/payouts/:id/reject", adminHandler.RejectPayout)
			adminRoutes.PUT("/payouts/:id/transfer", adminHandler.TransferPayout)

			adminRoutes.GET("/verifications/pending", adminHandler.ListPendingVerifications)
			adminRoutes.PUT("/verifications/:id/review", adminHandler.ReviewVerification)

			adminRoutes.POST("/recalculate-collected", adminHandler.RecalculateCollected)
			adminRoutes.GET("/stats/errors", adminHandler.ErrorStats)
		}
	}

	// 本地存储时把上传目录暴露为静态文件
	if config.AppConfig.StorageBackend == "local" {
		r.Static("/uploads", config.AppConfig.LocalStoragePath)
	}

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.Port,
		Handler: r,
	}

	go func() {
		util.Logger.Info("服务器正在启动", zap.String("port", config.AppConfig.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		util.Logger.Fatal("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// initStorage 按配置选择文件存储后端，默认本地磁盘
func initStorage() storage.FileStorage {
	switch config.AppConfig.StorageBackend {
	case "s3":
		s3Client, err := storage.NewS3Client(config.AppConfig.S3Region, config.AppConfig.S3Bucket)
		if err != nil {
			util.Logger.Fatal("初始化S3存储失败", zap.Error(err))
		}
		return s3Client
	case "gcs":
		gcsClient, err := storage.NewGCSClient(
			config.AppConfig.GCSBucketName,
			config.AppConfig.GCSCredentialsFile)
		if err != nil {
			util.Logger.Fatal("初始化GCS存储失败", zap.Error(err))
		}
		return gcsClient
	default:
		localStorage, err := storage.NewLocalStorage(config.AppConfig.LocalStoragePath)
		if err != nil {
			util.Logger.Fatal("初始化本地存储失败", zap.Error(err))
		}
		return localStorage
	}
}
