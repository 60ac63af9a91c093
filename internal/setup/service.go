// Package setup は初回管理者アカウントのブートストラップ処理を提供する。
package setup

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/authgate/internal/auth"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/repository"
)

// ServiceConfig はセットアップサービスの設定。
type ServiceConfig struct {
	// SetupKey は管理者作成を許可する共有シークレット。空の場合セットアップは無効。
	SetupKey string
	// PasswordMinLength はパスワードの最小文字数。
	PasswordMinLength int
}

// MetricsRecorder はブートストラップ完了のメトリクス記録インターフェース。
type MetricsRecorder interface {
	RecordAdminBootstrap()
}

// Service は初回管理者作成のビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	config   ServiceConfig
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilを許容する。
func NewService(userRepo repository.UserRepository, config ServiceConfig, metrics MetricsRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		config:   config,
		metrics:  metrics,
	}
}

// CreateAdminInput は管理者作成のリクエスト内容。
type CreateAdminInput struct {
	Username string
	Password string
	Name     string
	SetupKey string
}

// CreateAdmin は初回管理者アカウントを作成する。
// 検証順序: キー構成 → キー照合 → 管理者既存チェック → 入力検証 → ユーザー名重複。
// 管理者が1人でも存在する場合は正しいキーでも拒否する（再ブートストラップ防止）。
func (s *Service) CreateAdmin(ctx context.Context, input CreateAdminInput) (*model.User, error) {
	if s.config.SetupKey == "" {
		return nil, model.NewSetupNotConfiguredError()
	}

	if subtle.ConstantTimeCompare([]byte(input.SetupKey), []byte(s.config.SetupKey)) != 1 {
		slog.Warn("setup key mismatch")
		return nil, model.NewSetupKeyInvalidError()
	}

	adminExists, err := s.userRepo.AdminExists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check admin existence: %w", err)
	}
	if adminExists {
		return nil, model.NewAdminExistsError()
	}

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

	admin := &model.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, admin); err != nil {
		if err == repository.ErrDuplicateUsername {
			return nil, model.NewDuplicateUsernameError()
		}
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAdminBootstrap()
	}
	slog.Info("initial admin created",
		slog.String("user_id", admin.ID),
	)

	return admin, nil
}
