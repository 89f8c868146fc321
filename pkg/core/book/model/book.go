package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	category "library-portal/pkg/core/category/model"
)

// Book 只用于分类统计和外键约束，借阅流程不在本系统内
type Book struct {
	ID         string    `gorm:"type:char(36);primaryKey"`
	Title      string    `gorm:"type:varchar(255);not null"`
	CategoryID string    `gorm:"type:char(36);not null;index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	// 仍有图书引用时数据库拒绝删除分类
	Category *category.Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Book) TableName() string {
	return "books"
}

func (b *Book) BeforeCreate(*gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
