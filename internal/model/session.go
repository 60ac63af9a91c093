// Package model はドメインモデルを定義する。
package model

import "time"

// Session はユーザーのログインセッションを表す。
// IDはCookieに格納される不透明なケイパビリティトークン。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はセッションが指定時刻時点で期限切れかどうかを返す。
// 有効期限ちょうどの時刻は期限切れとして扱う。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
