// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限レベルを表す2値のenum。
type Role string

const (
	// RoleAdmin は管理者権限。ユーザー管理APIにアクセスできる。
	RoleAdmin Role = "admin"
	// RoleUser は一般利用者権限。
	RoleUser Role = "user"
)

// ParseRole は入力文字列をRoleに変換する。
// "admin"以外の値はすべてRoleUserに丸める。
func ParseRole(s string) Role {
	if s == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleUser
}

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュのみを保持し、平文パスワードは一切保持しない。
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // bcryptハッシュ。レスポンスには決して含めない
	Name         string     `json:"name"`
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLoginAt  *time.Time `json:"lastLogin,omitempty"`
}

// SanitizedUser はパスワードハッシュを除いたユーザーのAPIレスポンス表現。
// クライアントに返すユーザー情報は必ずこの形式を経由する。
type SanitizedUser struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Name        string     `json:"name"`
	Role        Role       `json:"role"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLogin"`
}

// Sanitize はUserからSanitizedUserに変換する。
func (u *User) Sanitize() SanitizedUser {
	return SanitizedUser{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
