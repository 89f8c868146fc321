// Package schema owns table creation for every persisted model.
package schema

import (
	"gorm.io/gorm"

	book "library-portal/pkg/core/book/model"
	category "library-portal/pkg/core/category/model"
	profile "library-portal/pkg/core/profile/model"
)

// AutoMigrate 分类表必须先于图书表创建（外键依赖）
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == "mysql" {
		db = db.Set("gorm:table_options", "ENGINE=InnoDB DEFAULT CHARSET=utf8mb4")
	}
	return db.AutoMigrate(&category.Category{}, &book.Book{}, &profile.Profile{})
}
