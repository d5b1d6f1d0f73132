package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 账号角色
const (
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// User 账号表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey"                       json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null"                  json:"username"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                 json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'employee'" json:"role"` // manager | employee
	VersionedModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// BeforeCreate 未指定主键时生成 UUID，并初始化乐观锁版本号
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	if u.Version == 0 {
		u.Version = 1
	}
	return nil
}

// IsEmployee 是否为普通员工账号
func (u *User) IsEmployee() bool { return u.Role == RoleEmployee }
