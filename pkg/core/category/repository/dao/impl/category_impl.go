package dao

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"library-portal/pkg/common/config"
	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/category/model"
	"library-portal/pkg/core/category/repository/dao"
)

// 图书数量按子查询派生，不做冗余存储
const booksCountColumn = "(SELECT COUNT(*) FROM books WHERE books.category_id = book_categories.id) AS books_count"

var sortableColumns = map[string]bool{
	"name":       true,
	"created_at": true,
}

type GormCategoryRepository struct {
	db *gorm.DB
}

var _ dao.CategoryRepository = (*GormCategoryRepository)(nil)

func NewCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) withCount(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("book_categories.*", booksCountColumn)
}

// lowerName 大小写折叠表达式；MySQL utf8mb4 的 LOWER 已支持 Unicode
func (r *GormCategoryRepository) lowerName() string {
	if r.db.Dialector.Name() == "sqlite" {
		return config.SQLiteLowerFunc + "(book_categories.name)"
	}
	return "LOWER(book_categories.name)"
}

// escapeLike 转义 LIKE 通配符，搜索词按字面匹配
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func (r *GormCategoryRepository) List(ctx context.Context, filter dao.ListFilter) ([]model.WithCount, error) {
	query := r.withCount(ctx)

	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where(r.lowerName()+" LIKE ? ESCAPE '!'",
			"%"+escapeLike(strings.ToLower(search))+"%")
	}

	column := filter.SortColumn
	if !sortableColumns[column] {
		column = "created_at"
	}
	query = query.Order(clause.OrderByColumn{
		Column: clause.Column{Table: model.Category{}.TableName(), Name: column},
		Desc:   filter.Desc,
	})

	var categories []model.WithCount
	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("category list failed: %w", apperr.WrapGormError(err))
	}
	return categories, nil
}

func (r *GormCategoryRepository) QueryByID(ctx context.Context, id string) (model.WithCount, error) {
	var category model.WithCount
	err := r.withCount(ctx).
		Where("book_categories.id = ?", id).
		Take(&category).Error
	if err != nil {
		return model.WithCount{}, apperr.WrapGormError(err)
	}
	return category, nil
}

// ExistsByName 预检查名称占用；excludeID 非空时忽略自身
func (r *GormCategoryRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Category{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category name: %w", apperr.WrapGormError(err))
	}
	return count > 0, nil
}

func (r *GormCategoryRepository) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return apperr.WrapGormError(err)
	}
	return nil
}

func (r *GormCategoryRepository) Update(ctx context.Context, id, name string, description *string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        name,
			"description": description,
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return apperr.WrapGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrRecordNotFound
	}
	return nil
}

func (r *GormCategoryRepository) CountBooks(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("books").
		Where("category_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", apperr.WrapGormError(err))
	}
	return count, nil
}

// Delete 外键冲突（并发新增了图书）返回 ErrForeignKeyViolated
func (r *GormCategoryRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Category{})
	if result.Error != nil {
		return apperr.WrapGormError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrRecordNotFound
	}
	return nil
}
