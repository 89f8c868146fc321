package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive Status = "active"
	StatusLocked Status = "locked"
)

type Profile struct {
	ID           string          `gorm:"type:char(36);primaryKey"`
	Name         string          `gorm:"type:varchar(50);not null"`
	Email        string          `gorm:"type:varchar(255);uniqueIndex;not null"`
	Phone        *string         `gorm:"type:varchar(20)"`
	Address      *string         `gorm:"type:varchar(255)"`
	Role         string          `gorm:"type:varchar(20);not null;default:reader;index"`
	Status       Status          `gorm:"type:varchar(20);not null;default:active"`
	BorrowCount  int             `gorm:"not null;default:0"`
	TotalFines   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	PasswordHash string          `gorm:"type:varchar(255);not null"`
	// SessionVersion 与修改密码在同一事务内递增
	SessionVersion int       `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"index;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SessionVersion == 0 {
		p.SessionVersion = 1
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return nil
}

// View 对外只读视图，不含任何凭据字段
type View struct {
	ID          string
	Name        string
	Email       string
	Phone       *string
	Address     *string
	Role        string
	Status      Status
	BorrowCount int
	TotalFines  decimal.Decimal
	CreatedAt   time.Time
}

func (p Profile) View() View {
	return View{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
		Role:        p.Role,
		Status:      p.Status,
		BorrowCount: p.BorrowCount,
		TotalFines:  p.TotalFines,
		CreatedAt:   p.CreatedAt,
	}
}

// Credential 认证与改密所需的最小字段
type Credential struct {
	ID             string
	Role           string
	Status         Status
	PasswordHash   string
	SessionVersion int
}
