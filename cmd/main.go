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

	"github.com/D3stinn3/HC/config"
	"github.com/D3stinn3/HC/internal/api/auth"
	"github.com/D3stinn3/HC/internal/api/order"
	"github.com/D3stinn3/HC/internal/api/payment"
	"github.com/D3stinn3/HC/internal/api/shipment"
	"github.com/D3stinn3/HC/internal/auditlog"
	"github.com/D3stinn3/HC/internal/cache"
	"github.com/D3stinn3/HC/internal/middleware"
	"github.com/D3stinn3/HC/internal/provider"
	"github.com/D3stinn3/HC/internal/repository/mysql"
	"github.com/D3stinn3/HC/internal/service"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()

	// 初始化日志
	util.InitLogger(config.AppConfig.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 设置数据库连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBHost,
		config.AppConfig.DBPort,
		config.AppConfig.DBName)

	// 连接数据库
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	// 测试数据库连接
	if err := db.Ping(); err != nil {
		util.Logger.Fatal("数据库连接测试失败", zap.Error(err))
	}
	util.Logger.Info("数据库连接成功")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	util.Logger.Info("数据库连接池配置完成")

	// 连接 Redis，用于令牌黑名单和回调重放标记
	redisClient := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		util.Logger.Fatal("Redis 连接测试失败", zap.Error(err))
	}
	defer redisClient.Close()
	store := cache.NewStore(redisClient)
	util.Logger.Info("Redis 连接成功")

	// 注册自定义验证器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("positive_amount", util.ValidatePositiveAmount)
	}

	// 回调审计日志，追加写 JSONL 文件
	auditSink, err := auditlog.NewFileSink(config.AppConfig.AuditLogPath)
	if err != nil {
		util.Logger.Fatal("初始化审计日志失败", zap.Error(err))
	}

	// 支付服务商验证客户端
	verifier := provider.NewClient(
		config.AppConfig.ProviderVerifyURL,
		config.AppConfig.ProviderSecretKey,
		time.Duration(config.AppConfig.ProviderTimeoutSeconds)*time.Second)

	// 初始化存储库、服务和处理器
	orderRepo := mysql.NewOrderRepository(db)
	productRepo := mysql.NewProductRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	shipmentRepo := mysql.NewShipmentRepository(db)
	apiLogRepo := mysql.NewAPILogRepository(db)

	orderService := service.NewOrderService(orderRepo, productRepo)
	paymentService := service.NewPaymentService(
		paymentRepo,
		orderRepo,
		verifier,
		auditSink,
		store,
		config.AppConfig.WebhookSecret,
		time.Duration(config.AppConfig.WebhookToleranceSeconds)*time.Second)
	refundService := service.NewRefundService(paymentRepo, orderRepo)
	shipmentService := service.NewShipmentService(shipmentRepo, orderRepo, paymentRepo)

	orderHandler := order.NewOrderHandler(orderService)
	paymentHandler := payment.NewPaymentHandler(paymentService)
	refundHandler := payment.NewRefundHandler(refundService)
	shipmentHandler := shipment.NewShipmentHandler(shipmentService)
	authHandler := auth.NewAuthHandler(store)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	// 设置 Gin 路由
	r := gin.Default()

	// 添加中间件
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))
	r.Use(middleware.APILogMiddleware(apiLogRepo))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{config.AppConfig.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"Authorization",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length",
		"Content-Type",
		"Access-Control-Allow-Origin",
	}
	r.Use(cors.New(corsConfig))

	// 定义 API 路由
	api := r.Group("/api")
	{
		// 支付服务商回调，不走认证，身份由签名头保证
		api.POST("/webhooks/payment", paymentHandler.Webhook)

		// 需要认证的路由
		authorized := api.Group("/")
		authorized.Use(middleware.AuthMiddleware(store))
		{
			authorized.POST("/logout", authHandler.Logout)

			// 订单相关路由
			authorized.POST("/orders", orderHandler.CreateOrder)
			authorized.GET("/orders", orderHandler.ListMyOrders)
			authorized.GET("/orders/:id", orderHandler.GetOrder)
			authorized.GET("/orders/:id/history", orderHandler.GetStatusHistory)
			authorized.GET("/orders/:id/total", orderHandler.GetTotal)
			authorized.POST("/orders/:id/items", orderHandler.AddItem)
			authorized.PUT("/orders/:id/items/:item_id", orderHandler.UpdateItemQuantity)
			authorized.DELETE("/orders/:id/items/:item_id", orderHandler.RemoveItem)

			// 支付相关路由
			authorized.POST("/orders/:id/payment", paymentHandler.CreatePayment)
			authorized.GET("/orders/:id/payment", paymentHandler.GetPayment)
		}

		// 员工路由组
		staffRoutes := api.Group("/staff")
		staffRoutes.Use(middleware.AuthMiddleware(store), middleware.StaffMiddleware())
		{
			// 订单管理
			orderStaff := staffRoutes.Group("/orders")
			{
				orderStaff.GET("", orderHandler.ListOrders)                 // 订单列表
				orderStaff.PATCH("/:id/status", orderHandler.SetStatus)     // 更新订单状态
				orderStaff.DELETE("/:id", orderHandler.DeleteOrder)         // 删除订单
				orderStaff.POST("/:id/shipments", shipmentHandler.CreateShipment)    // 创建发货单
				orderStaff.GET("/:id/shipments", shipmentHandler.ListShipmentsByOrder) // 发货单列表
			}

			// 退款管理
			refundStaff := staffRoutes.Group("/refunds")
			{
				refundStaff.GET("/:id", refundHandler.GetRefund)             // 退款详情
				refundStaff.PATCH("/:id/status", refundHandler.SetRefundStatus) // 处理退款
			}
			staffRoutes.POST("/payments/:id/refunds", refundHandler.CreateRefund)    // 创建退款
			staffRoutes.GET("/payments/:id/refunds", refundHandler.ListRefundsByPayment) // 退款列表

			// 发货管理
			shipmentStaff := staffRoutes.Group("/shipments")
			{
				shipmentStaff.GET("/:id", shipmentHandler.GetShipment)    // 发货单详情
				shipmentStaff.PUT("/:id", shipmentHandler.UpdateShipment) // 更新发货单
			}
		}
	}

	// 创建一个带有超时的 http.Server
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	// 在一个新的 goroutine 中启动服务器
	go func() {
		util.Logger.Info("服务器正在启动，监听端口 :8080")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
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
