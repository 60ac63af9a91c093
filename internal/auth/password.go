// Package auth はパスワード認証、セッション管理、本人性解決を提供する。
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュのコストファクタ。
// 値を上げると総当たり耐性が上がる代わりにログイン処理が遅くなる。
const bcryptCost = 10

// HashPassword は平文パスワードからbcryptハッシュを生成する。
// ソルトは呼び出しごとにランダム生成される。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword は平文パスワードとbcryptハッシュを照合する。
// 不一致は正常系のfalseであり、エラーとして扱わない。
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
