package auth

import (
	"strings"
	"testing"
)

// ハッシュと照合の往復が成立することを検証
func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("正しいパスワードの照合に失敗")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("誤ったパスワードの照合が成功してしまった")
	}
}

// 同一パスワードでも呼び出しごとにソルトが変わりハッシュが異なることを検証
func TestHashPassword_RandomSaltPerCall(t *testing.T) {
	hash1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	hash2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if hash1 == hash2 {
		t.Error("同一パスワードから同一ハッシュが生成された（ソルトが効いていない）")
	}
	if !VerifyPassword("same-password", hash1) || !VerifyPassword("same-password", hash2) {
		t.Error("いずれかのハッシュで照合に失敗")
	}
}

// ハッシュに平文が含まれないこと、bcryptフォーマットであることを検証
func TestHashPassword_OutputFormat(t *testing.T) {
	hash, err := HashPassword("secret-password")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if strings.Contains(hash, "secret-password") {
		t.Error("ハッシュに平文パスワードが含まれている")
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Errorf("hash = %q, want bcrypt cost 10 format ($2a$10$...)", hash)
	}
}

// 不正なハッシュ文字列に対する照合がfalseを返す（panicしない）ことを検証
func TestVerifyPassword_MalformedHash(t *testing.T) {
	if VerifyPassword("password", "not-a-bcrypt-hash") {
		t.Error("不正なハッシュに対する照合が成功してしまった")
	}
	if VerifyPassword("password", "") {
		t.Error("空ハッシュに対する照合が成功してしまった")
	}
}
