package config

import (
	"encoding/json"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type ServerConfig struct {
	Address string `json:"address"`
}

type SecurityConfig struct {
	MaxBodySize    int64    `json:"maxBodySize"` // 单位：字节
	AllowedHosts   []string `json:"allowedHosts"`
	AllowedMethods []string `json:"allowedMethods"`
	BcryptCost     int      `json:"bcryptCost"`
}

type TimeoutConfig struct {
	RequestTimeout int `json:"requestTimeout"` // 单位：秒
}

type CORSConfig struct {
	AllowOrigins     []string      `json:"allowOrigins"`
	AllowMethods     []string      `json:"allowMethods"`
	AllowHeaders     []string      `json:"allowHeaders"`
	ExposeHeaders    []string      `json:"exposeHeaders"`
	AllowCredentials bool          `json:"allowCredentials"`
	MaxAge           time.Duration `json:"maxAge"`
	TrustedDomains   []string      `json:"trustedDomains"`
}

type JWTAuthConfig struct {
	Secret         string        `json:"secret"`
	ExpireDuration time.Duration `json:"expireDuration"`
	Issuer         string        `json:"issuer"`
	SigningMethod  string        `json:"signingMethod"`
	Realm          string        `json:"realm"`        // JWT领域标识
	CookieName     string        `json:"cookieName"`   // 前端依赖名为 token 的 Cookie
	SecureCookie   bool          `json:"secureCookie"` // 仅HTTPS下发送
}

type RateLimitConfig struct {
	Rate     int           `json:"rate"`
	Interval time.Duration `json:"interval"`
}

type MiddlewareConfig struct {
	Security  SecurityConfig  `json:"security"`
	JWT       JWTAuthConfig   `json:"jwt"`
	Timeout   TimeoutConfig   `json:"timeout"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rateLimit"`
}

type DatabaseConfig struct {
	Driver      string `json:"driver"`      // mysql 或 sqlite
	Host        string `json:"host"`        // 数据库主机地址
	Port        int    `json:"port"`        // 数据库端口
	Username    string `json:"username"`    // 数据库用户名
	Password    string `json:"password"`    // 数据库密码
	DBName      string `json:"dbname"`      // 数据库名称
	UseUnixSock bool   `json:"useUnixSock"` // 是否使用Unix套接字连接
	Path        string `json:"path"`        // sqlite 文件路径
	MinPoolSize int    `json:"minPoolSize"` // 连接池最小连接数
	MaxPoolSize int    `json:"maxPoolSize"` // 连接池最大连接数
	LogLevel    string `json:"logLevel"`    // GORM日志级别
}

type RedisConfig struct {
	Address  string        `json:"address"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"` // 会话版本缓存时长
}

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	Redis      RedisConfig      `json:"redis"`
	Middleware MiddlewareConfig `json:"middleware"`
	LogLevel   string           `json:"logLevel"`
	Env        string           `json:"env"` // 环境标识
}

var defaultConfig = Config{
	Server: ServerConfig{
		Address: ":8080",
	},
	Database: DatabaseConfig{
		Driver:      "mysql",
		Host:        "localhost",
		Port:        3306,
		Username:    "root",
		Password:    "root",
		DBName:      "library",
		UseUnixSock: false,
		Path:        "library.db",
		MinPoolSize: 5,
		MaxPoolSize: 50,
		LogLevel:    "warn",
	},
	Redis: RedisConfig{
		Address: "localhost:6379",
		DB:      0,
		TTL:     10 * time.Minute,
	},
	Middleware: MiddlewareConfig{
		Security: SecurityConfig{
			MaxBodySize:    1 << 20, // 1MB
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			BcryptCost:     bcrypt.DefaultCost,
		},
		JWT: JWTAuthConfig{ // JWT默认配置
			Secret:         "dev-secret-change-me-in-production", // 开发环境默认密钥
			ExpireDuration: 24 * time.Hour,
			Issuer:         "library-portal",
			SigningMethod:  "HS256",
			Realm:          "library-portal",
			CookieName:     "token",
		},
		Timeout: TimeoutConfig{
			RequestTimeout: 15,
		},
		CORS: CORSConfig{
			AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
			TrustedDomains:   []string{},
		},
		RateLimit: RateLimitConfig{
			Rate:     50,
			Interval: 100 * time.Millisecond,
		},
	},
	LogLevel: "info",
	Env:      "development",
}

// Default 返回默认配置的副本
func Default() *Config {
	cfg := cloneDefaults()
	return &cfg
}

// cloneDefaults 复制切片字段，避免 json.Unmarshal 复用默认值的底层数组
func cloneDefaults() Config {
	cfg := defaultConfig
	sec := &cfg.Middleware.Security
	sec.AllowedHosts = slices.Clone(sec.AllowedHosts)
	sec.AllowedMethods = slices.Clone(sec.AllowedMethods)

	cors := &cfg.Middleware.CORS
	cors.AllowOrigins = slices.Clone(cors.AllowOrigins)
	cors.AllowMethods = slices.Clone(cors.AllowMethods)
	cors.AllowHeaders = slices.Clone(cors.AllowHeaders)
	cors.ExposeHeaders = slices.Clone(cors.ExposeHeaders)
	cors.TrustedDomains = slices.Clone(cors.TrustedDomains)
	return cfg
}

// IsProd 判断当前是否生产环境
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// Load 加载配置（优先级：环境变量 > 配置文件 > .env > 默认值）
func Load() *Config {
	config := cloneDefaults()

	// 0. .env 只补充未设置的环境变量
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		hlog.Warnf("Failed to load .env file: %v", err)
	}

	// 1. 尝试从配置文件加载
	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(&config, configPath); err != nil {
			hlog.Warnf("Failed to load config file: %v", err)
		}
	}

	// 2. 从环境变量覆盖
	loadFromEnv(&config)

	return &config
}

// getConfigPath 获取配置文件路径
func getConfigPath() string {
	// 优先使用环境变量指定的配置文件路径
	if path := os.Getenv("APP_CONFIG"); path != "" {
		return path
	}

	// 依次查找可能的配置文件位置
	searchPaths := []string{
		"./config.json",                   // 当前目录
		"../config.json",                  // 上级目录
		"/etc/library-portal/config.json", // 系统配置目录
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadFromFile 从文件加载配置
func loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, config)
}

// loadFromEnv 从环境变量加载配置
func loadFromEnv(config *Config) {
	// 服务器配置
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		config.Server.Address = v
	}

	// 环境配置
	if v := os.Getenv("APP_ENV"); v != "" {
		config.Env = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.LogLevel = strings.ToLower(v)
	}

	// 中间件配置
	if v := os.Getenv("MAX_BODY_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Middleware.Security.MaxBodySize = size
		}
	}

	if v := os.Getenv("ALLOWED_HOSTS"); v != "" {
		config.Middleware.Security.AllowedHosts = splitEnvList(v)
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil && cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			config.Middleware.Security.BcryptCost = cost
		} else {
			hlog.Warnf("Invalid BCRYPT_COST: %s", v)
		}
	}

	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			config.Middleware.Timeout.RequestTimeout = timeout
		}
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			config.Middleware.RateLimit.Rate = rate
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		config.Middleware.CORS.AllowOrigins = splitEnvList(v)
	}

	/****** JWT 配置 ******/
	if v := os.Getenv("JWT_SECRET"); v != "" {
		config.Middleware.JWT.Secret = v
	}

	if v := os.Getenv("JWT_EXPIRATION"); v != "" {
		if duration, err := time.ParseDuration(v); err == nil {
			config.Middleware.JWT.ExpireDuration = duration
		} else {
			hlog.Warnf("Invalid JWT_EXPIRATION format: %v", err)
		}
	}

	if v := os.Getenv("JWT_ISSUER"); v != "" {
		config.Middleware.JWT.Issuer = v
	}

	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		// 清理输入算法字符串中的空格
		algorithm := strings.ReplaceAll(v, " ", "")
		algorithm = strings.ToLower(algorithm)

		// 允许的算法列表
		validAlgorithms := map[string]bool{
			"hs256": true,
			"hs384": true,
			"hs512": true,
		}

		if validAlgorithms[algorithm] {
			// 统一转换为大写（标准JWT算法应全大写）
			config.Middleware.JWT.SigningMethod = strings.ToUpper(algorithm)
		} else {
			hlog.Warnf("Unsupported JWT algorithm: %s", v)
		}
	}

	if v := os.Getenv("JWT_COOKIE_SECURE"); v != "" {
		config.Middleware.JWT.SecureCookie = parseBool(v)
	}

	// 数据库配置
	if v := os.Getenv("DB_DRIVER"); v != "" {
		config.Database.Driver = strings.ToLower(v)
	}

	if v := os.Getenv("DB_HOST"); v != "" {
		config.Database.Host = v
	}

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.Database.Port = port
		}
	}

	if v := os.Getenv("DB_USER"); v != "" {
		config.Database.Username = v
	}

	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Database.Password = v
	}

	if v := os.Getenv("DB_NAME"); v != "" {
		config.Database.DBName = v
	}

	if v := os.Getenv("DB_SOCKET"); v != "" {
		config.Database.UseUnixSock = parseBool(v)
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		config.Database.Path = v
	}

	if v := os.Getenv("DB_MIN_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MinPoolSize = size
		}
	}

	if v := os.Getenv("DB_MAX_POOL"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			config.Database.MaxPoolSize = size
		}
	}

	if v := os.Getenv("DB_LOG_LEVEL"); v != "" {
		config.Database.LogLevel = strings.ToLower(v)
	}

	// Redis 配置
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		config.Redis.Address = v
	}

	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		config.Redis.Password = v
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			config.Redis.DB = db
		}
	}

	if v := os.Getenv("REDIS_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil && ttl > 0 {
			config.Redis.TTL = ttl
		} else {
			hlog.Warnf("Invalid REDIS_TTL: %s", v)
		}
	}
}

// 分割环境变量列表（支持逗号分隔的字符串）
func splitEnvList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// 转换字符串为布尔值
func parseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "1" || value == "yes"
}

// HlogLevel 将配置中的日志级别转换为 hlog 级别
func (c *Config) HlogLevel() hlog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "trace":
		return hlog.LevelTrace
	case "debug":
		return hlog.LevelDebug
	case "notice":
		return hlog.LevelNotice
	case "warn":
		return hlog.LevelWarn
	case "error":
		return hlog.LevelError
	default:
		return hlog.LevelInfo
	}
}
