package dao

import (
	"context"

	"library-portal/pkg/core/category/model"
)

// ListFilter 列表查询条件；SortColumn 只接受 name / created_at
type ListFilter struct {
	Search     string
	SortColumn string
	Desc       bool
}

type CategoryRepository interface {
	List(ctx context.Context, filter ListFilter) ([]model.WithCount, error)
	QueryByID(ctx context.Context, id string) (model.WithCount, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, id, name string, description *string) error
	CountBooks(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
}
