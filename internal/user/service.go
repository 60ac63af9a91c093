// Package user はユーザー管理のドメインロジックを提供する。
// すべての操作は管理者専用であり、認可チェック自体はハンドラー層で行う。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/authgate/internal/auth"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// ServiceConfig はユーザー管理サービスの設定。
type ServiceConfig struct {
	PasswordMinLength int
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// List は全ユーザーを作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを取得する。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// CreateInput はユーザー作成のリクエスト内容。
type CreateInput struct {
	Username string
	Password string
	Name     string
	Role     string
}

// Create は新規ユーザーを作成する。
// roleは"admin"以外すべて"user"に丸める。ユーザー名重複は事前チェックと
// DB制約の両方で検出し、いずれも同じ重複エラーとして返す。
func (s *Service) Create(ctx context.Context, input CreateInput) (*model.User, error) {
	if input.Username == "" || input.Password == "" || input.Name == "" {
		return nil, model.NewValidationError("ユーザー名、パスワード、表示名は必須です。")
	}
	if len(input.Password) < s.config.PasswordMinLength {
		return nil, model.NewValidationError(
			fmt.Sprintf("パスワードは%d文字以上で指定してください。", s.config.PasswordMinLength))
	}

	existing, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateUsernameError()
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         model.ParseRole(input.Role),
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if err == repository.ErrDuplicateUsername {
			return nil, model.NewDuplicateUsernameError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// UpdateInput はユーザー更新のリクエスト内容。
// nilのフィールドは変更しない部分更新を行う。
type UpdateInput struct {
	Username *string
	Password *string
	Name     *string
	Role     *string
}

// Update は指定ユーザーを部分更新する。
// パスワードは新しい平文が供給された場合のみ再ハッシュし、
// 省略時は既存ハッシュを維持する。ユーザー名変更時のみ重複を再チェックする。
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	if input.Username != nil && *input.Username != "" && *input.Username != user.Username {
		existing, err := s.userRepo.FindByUsername(ctx, *input.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil {
			return nil, model.NewDuplicateUsernameError()
		}
		user.Username = *input.Username
	}

	if input.Name != nil && *input.Name != "" {
		user.Name = *input.Name
	}

	// "admin"/"user"以外のrole値は無視する
	if input.Role != nil && (*input.Role == string(model.RoleAdmin) || *input.Role == string(model.RoleUser)) {
		user.Role = model.Role(*input.Role)
	}

	if input.Password != nil && *input.Password != "" {
		if len(*input.Password) < s.config.PasswordMinLength {
			return nil, model.NewValidationError(
				fmt.Sprintf("パスワードは%d文字以上で指定してください。", s.config.PasswordMinLength))
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if err == repository.ErrDuplicateUsername {
			return nil, model.NewDuplicateUsernameError()
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("user updated", slog.String("user_id", user.ID))

	return user, nil
}

// Delete は指定ユーザーを削除する。
// 呼び出し元自身の削除はターゲットの存在有無によらず常に拒否する。
// 削除前に対象ユーザーの全セッションを失効させ、削除済みユーザーの
// セッションが自然失効まで生き残ることを防ぐ。
func (s *Service) Delete(ctx context.Context, callerID, targetID string) error {
	if callerID == targetID {
		return model.NewSelfDeleteError()
	}

	// 1. セッションを失効
	if err := s.sessionRepo.DeleteByUserID(ctx, targetID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	// 2. ユーザーを削除（FKのCASCADEは二重の防衛線）
	if err := s.userRepo.DeleteByID(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("user deleted",
		slog.String("user_id", targetID),
		slog.String("deleted_by", callerID),
	)

	return nil
}
