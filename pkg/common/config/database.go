package config

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLiteLowerFunc SQLite 内置 LOWER 只处理 ASCII，越南语字母需用此函数做大小写折叠
const SQLiteLowerFunc = "unicode_lower"

func init() {
	gosqlite.MustRegisterDeterministicScalarFunction(SQLiteLowerFunc, 1,
		func(_ *gosqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
}

// hlogWriter 让GORM日志走 hlog 输出
type hlogWriter struct{}

func (hlogWriter) Printf(format string, args ...interface{}) {
	hlog.Infof(strings.TrimSpace(format), args...)
}

func (c *Config) gormLogger() logger.Interface {
	level := logger.Warn
	switch c.Database.LogLevel {
	case "silent":
		level = logger.Silent
	case "error":
		level = logger.Error
	case "warn":
		level = logger.Warn
	case "info":
		level = logger.Info
	}
	return logger.New(hlogWriter{}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// DSN 根据驱动生成连接串
func (c *Config) DSN() string {
	if c.Database.Driver == "sqlite" {
		// 外键必须显式开启，books.category_id 依赖它
		return c.Database.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	charsetParam := "charset=utf8mb4&parseTime=True&loc=Local"

	// 自动切换连接方式
	if c.Database.UseUnixSock {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?%s",
			c.Database.Username,
			c.Database.Password,
			c.Database.Host, // 这里host存储的是socket路径
			c.Database.DBName,
			charsetParam)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.Username,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		charsetParam)
}

func (c *Config) InitDB() (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Database.Driver {
	case "", "mysql":
		dialector = mysql.Open(c.DSN())
	case "sqlite":
		dialector = sqlite.Open(c.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	gormConfig := &gorm.Config{
		Logger: c.gormLogger(),
		// 唯一键、外键冲突统一翻译为 gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated
		TranslateError: true,
	}

	// 初始化数据库连接
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(c.Database.MinPoolSize)
	sqlDB.SetMaxOpenConns(c.Database.MaxPoolSize)

	return db, nil
}
