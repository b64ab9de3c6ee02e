package config

import (
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	DBHost                  string
	DBPort                  string
	DBUser                  string
	DBPassword              string
	DBName                  string
	JWTSecret               string
	LogLevel                string
	RedisAddr               string
	RedisPassword           string
	WebhookSecret           string
	WebhookToleranceSeconds int
	ProviderVerifyURL       string
	ProviderSecretKey       string
	ProviderTimeoutSeconds  int
	AuditLogPath            string
	FrontendURL             string
	BackendURL              string
	Debug                   bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	err := godotenv.Load()
	if err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	// 从环境变量中读取配置
	AppConfig = Config{
		DBHost:                  getEnv("DB_HOST", ""),
		DBPort:                  getEnv("DB_PORT", ""),
		DBUser:                  getEnv("DB_USER", ""),
		DBPassword:              getEnv("DB_PASSWORD", ""),
		DBName:                  getEnv("DB_NAME", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		WebhookSecret:           getEnv("WEBHOOK_SECRET", ""),
		WebhookToleranceSeconds: getEnvAsInt("WEBHOOK_TOLERANCE_SECONDS", 300),
		ProviderVerifyURL:       getEnv("PROVIDER_VERIFY_URL", ""),
		ProviderSecretKey:       getEnv("PROVIDER_SECRET_KEY", ""),
		ProviderTimeoutSeconds:  getEnvAsInt("PROVIDER_TIMEOUT_SECONDS", 10),
		AuditLogPath:            getEnv("AUDIT_LOG_PATH", "./logs/webhook_audit.log"),
		FrontendURL:             getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:              getEnv("BACKEND_URL", "http://localhost:8080"),
		Debug:                   getEnvAsBool("DEBUG", true),
	}

	validateConfig()

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库：%s:%s", AppConfig.DBHost, AppConfig.DBPort)
	log.Printf("Webhook 配置：容忍窗口=%d秒，验证接口=%s",
		AppConfig.WebhookToleranceSeconds, AppConfig.ProviderVerifyURL)
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func validateConfig() {
	if AppConfig.DBHost == "" || AppConfig.DBPort == "" || AppConfig.DBUser == "" || AppConfig.DBPassword == "" || AppConfig.DBName == "" {
		log.Fatal("错误：数据库配置不完整")
	}
	if AppConfig.JWTSecret == "" {
		log.Fatal("错误：JWT密钥未设置")
	}
	if AppConfig.WebhookSecret == "" {
		log.Fatal("错误：Webhook 签名密钥未设置")
	}
	if AppConfig.ProviderVerifyURL == "" {
		log.Fatal("错误：支付服务商验证接口未配置")
	}
}
