package errors

import (
	"errors"
	"fmt"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	sqlite3 "modernc.org/sqlite/lib"
)

// 存储层标准化错误
var (
	ErrRecordNotFound     = errors.New("record not found")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrForeignKeyViolated = errors.New("foreign key constraint violated")
	ErrDatabaseInternal   = errors.New("database internal error")
)

// region 错误处理工具函数

// WrapGormError 将底层数据库错误转变为业务可识别错误
// 参数说明：
//   - rawErr: 原始GORM错误（开启 TranslateError 后已被方言翻译过一次）
//
// 返回值：
//   - error: 标准化错误类型
func WrapGormError(rawErr error) error {
	if rawErr == nil {
		return nil
	}

	// 处理预定义的GORM错误
	switch {
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(rawErr, gorm.ErrDuplicatedKey):
		return ErrDuplicateEntry
	case errors.Is(rawErr, gorm.ErrForeignKeyViolated):
		return ErrForeignKeyViolated
	}

	// 处理MySQL驱动错误
	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // 唯一性约束冲突
			return ErrDuplicateEntry
		case 1451, 1452: // 外键约束
			return ErrForeignKeyViolated
		case 1045, 1049, 1146: // 数据库连接、表不存在等错误
			return fmt.Errorf("%w: %s", ErrDatabaseInternal, mysqlErr.Message)
		}
	}

	// 处理SQLite驱动错误；glebarez 方言只翻译唯一键，外键需在此识别
	var sqliteErr *gosqlite.Error
	if errors.As(rawErr, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return ErrDuplicateEntry
		// ON DELETE RESTRICT 以 TRIGGER 码报告
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, sqlite3.SQLITE_CONSTRAINT_TRIGGER:
			return ErrForeignKeyViolated
		}
	}

	if errors.Is(rawErr, gorm.ErrInvalidDB) ||
		errors.Is(rawErr, gorm.ErrInvalidTransaction) ||
		errors.Is(rawErr, gorm.ErrUnsupportedRelation) {
		return ErrDatabaseInternal
	}

	// 兜底处理：附加原始错误信息
	return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError 判断是否为重复记录错误
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsNotFoundError 判断是否为记录不存在
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrRecordNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsForeignKeyError 判断是否为外键约束错误
func IsForeignKeyError(err error) bool {
	return errors.Is(err, ErrForeignKeyViolated) || errors.Is(err, gorm.ErrForeignKeyViolated)
}
