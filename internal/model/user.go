package model

import "time"

// 用户角色
const (
	RoleFundraiser = "FUNDRAISER"
	RoleAdmin      = "ADMIN"
)

// User 结构体表示用户模型
type User struct {
	ID           int        `json:"id"`
	Username     string     `json:"user_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // 密码哈希不应在JSON中暴露
	Role         string     `json:"role"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"` // 募捐人资料审核通过时间
	CreatedAt    time.Time  `json:"created_at"`
}
