// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/authgate/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByUsername は指定ユーザー名のユーザーを取得する（完全一致、大文字小文字を区別）。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// List は全ユーザーを作成日時の降順で返す。
	List(ctx context.Context) ([]*model.User, error)

	// Create はユーザーを作成する。
	// ユーザー名が重複している場合はErrDuplicateUsernameを返す
	// （DBのUNIQUE制約違反をマッピングする）。
	Create(ctx context.Context, user *model.User) error

	// Update はユーザーの全フィールドを上書き更新する。
	// 部分更新の組み立てはサービス層の責務。
	// ユーザー名が重複している場合はErrDuplicateUsernameを返す。
	Update(ctx context.Context, user *model.User) error

	// UpdateLastLogin は最終ログイン日時を現在時刻に更新する。
	UpdateLastLogin(ctx context.Context, id string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessionsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error

	// AdminExists はrole=adminのユーザーが1人以上存在するかを返す。
	// 存在チェッククエリであり全件走査は行わない。結果はキャッシュしないこと
	// （初回管理者作成の直後のリクエストから結果が反転する必要がある）。
	AdminExists(ctx context.Context) (bool, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。
	// 存在しない場合および期限切れの場合はnilを返す（遅延失効）。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しないIDでもエラーにしない（冪等）。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
