package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/hertz/pkg/common/hlog"

	apperr "library-portal/pkg/common/errors"
	"library-portal/pkg/core/category/model"
	"library-portal/pkg/core/category/repository/dao"
	"library-portal/pkg/core/session"
	"library-portal/pkg/core/validation"
)

const (
	MsgCreated  = "Thêm thể loại thành công"
	MsgUpdated  = "Cập nhật thể loại thành công"
	MsgDeleted  = "Xóa thể loại thành công"
	msgExists   = "Thể loại đã tồn tại"
	msgNotFound = "Không tìm thấy thể loại"
	msgHasBooks = "Không thể xóa. Thể loại đang có sách"

	msgListFailed   = "Đã xảy ra lỗi khi lấy danh sách thể loại"
	msgCreateFailed = "Đã xảy ra lỗi khi thêm thể loại"
	msgUpdateFailed = "Đã xảy ra lỗi khi cập nhật thể loại"
	msgDeleteFailed = "Đã xảy ra lỗi khi xóa thể loại"
)

const (
	SortByName       = "name"
	SortByBooksCount = "books_count"
	SortByCreatedAt  = "created_at"
)

// ListQuery 对应 ?search=&sortBy=&sortOrder=
type ListQuery struct {
	Search    string
	SortBy    string
	SortOrder string
}

type CategoryService struct {
	repo      dao.CategoryRepository
	validator *validation.Validator
}

func NewCategoryService(repo dao.CategoryRepository, v *validation.Validator) *CategoryService {
	return &CategoryService{repo: repo, validator: v}
}

// List 默认按名称升序；未知的 sortBy 按创建时间排序
func (s *CategoryService) List(ctx context.Context, q ListQuery) ([]model.WithCount, error) {
	desc := strings.EqualFold(q.SortOrder, "desc")

	sortBy := q.SortBy
	switch sortBy {
	case "":
		sortBy = SortByName
	case SortByName, SortByBooksCount:
	default:
		sortBy = SortByCreatedAt
	}

	filter := dao.ListFilter{Search: q.Search, SortColumn: sortBy, Desc: desc}
	if sortBy == SortByBooksCount {
		// 派生列在内存中稳定排序，同数量时保持创建顺序
		filter.SortColumn = SortByCreatedAt
		filter.Desc = false
	}

	categories, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperr.NewInternal(msgListFailed, err)
	}

	if sortBy == SortByBooksCount {
		sort.SliceStable(categories, func(i, j int) bool {
			if desc {
				return categories[i].BooksCount > categories[j].BooksCount
			}
			return categories[i].BooksCount < categories[j].BooksCount
		})
	}
	return categories, nil
}

func nameConflict() *apperr.Error {
	return apperr.NewConflict(msgExists, apperr.FieldError{Field: "name", Message: msgExists})
}

func (s *CategoryService) Create(ctx context.Context, caller session.Identity, in validation.CategoryInput) (model.WithCount, error) {
	if err := session.Authorize(caller, session.Elevated...); err != nil {
		return model.WithCount{}, err
	}
	if err := s.validator.Validate(&in); err != nil {
		return model.WithCount{}, err
	}

	exists, err := s.repo.ExistsByName(ctx, in.Name, "")
	if err != nil {
		return model.WithCount{}, apperr.NewInternal(msgCreateFailed, err)
	}
	if exists {
		return model.WithCount{}, nameConflict()
	}

	category := model.Category{Name: in.Name, Description: in.DescriptionOrNil()}
	if err := s.repo.Create(ctx, &category); err != nil {
		// 预检查与插入之间的并发写入由唯一索引兜底
		if apperr.IsDuplicateError(err) {
			return model.WithCount{}, nameConflict().WithCause(err)
		}
		return model.WithCount{}, apperr.NewInternal(msgCreateFailed, err)
	}

	hlog.CtxInfof(ctx, "category created id=%s name=%q by=%s", category.ID, category.Name, caller.ProfileID)
	return model.WithCount{Category: category}, nil
}

func (s *CategoryService) Update(ctx context.Context, caller session.Identity, id string, in validation.CategoryInput) (model.WithCount, error) {
	if err := session.Authorize(caller, session.Elevated...); err != nil {
		return model.WithCount{}, err
	}
	if err := s.validator.Validate(&in); err != nil {
		return model.WithCount{}, err
	}

	if _, err := s.repo.QueryByID(ctx, id); err != nil {
		if apperr.IsNotFoundError(err) {
			return model.WithCount{}, apperr.NewNotFound(msgNotFound)
		}
		return model.WithCount{}, apperr.NewInternal(msgUpdateFailed, err)
	}

	taken, err := s.repo.ExistsByName(ctx, in.Name, id)
	if err != nil {
		return model.WithCount{}, apperr.NewInternal(msgUpdateFailed, err)
	}
	if taken {
		return model.WithCount{}, nameConflict()
	}

	if err := s.repo.Update(ctx, id, in.Name, in.DescriptionOrNil()); err != nil {
		switch {
		case apperr.IsDuplicateError(err):
			return model.WithCount{}, nameConflict().WithCause(err)
		case apperr.IsNotFoundError(err):
			return model.WithCount{}, apperr.NewNotFound(msgNotFound)
		}
		return model.WithCount{}, apperr.NewInternal(msgUpdateFailed, err)
	}

	updated, err := s.repo.QueryByID(ctx, id)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return model.WithCount{}, apperr.NewNotFound(msgNotFound)
		}
		return model.WithCount{}, apperr.NewInternal(msgUpdateFailed, err)
	}
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, caller session.Identity, id string) error {
	if err := session.Authorize(caller, session.Elevated...); err != nil {
		return err
	}

	category, err := s.repo.QueryByID(ctx, id)
	if err != nil {
		if apperr.IsNotFoundError(err) {
			return apperr.NewNotFound(msgNotFound)
		}
		return apperr.NewInternal(msgDeleteFailed, err)
	}

	if category.BooksCount > 0 {
		return hasBooksConflict(category.BooksCount)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		switch {
		case apperr.IsForeignKeyError(err):
			// 计数之后又有图书挂入，外键拒绝删除；重新计数给出准确数量
			count, countErr := s.repo.CountBooks(ctx, id)
			if countErr != nil {
				hlog.CtxWarnf(ctx, "category delete recount failed id=%s: %v", id, countErr)
				return apperr.NewConflict(msgHasBooks).WithCause(err)
			}
			return hasBooksConflict(count).WithCause(err)
		case apperr.IsNotFoundError(err):
			return apperr.NewNotFound(msgNotFound)
		}
		return apperr.NewInternal(msgDeleteFailed, err)
	}

	hlog.CtxInfof(ctx, "category deleted id=%s by=%s", id, caller.ProfileID)
	return nil
}

func hasBooksConflict(count int64) *apperr.Error {
	return apperr.NewConflict(msgHasBooks, apperr.FieldError{
		Field:   "id",
		Message: fmt.Sprintf("Không thể xóa. Thể loại đang có %d cuốn sách", count),
	})
}
