package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/setup"
)

// SetupServiceInterface はセットアップハンドラーが必要とするサービスインターフェース。
type SetupServiceInterface interface {
	// CreateAdmin は初回管理者を作成する。管理者が既に存在する場合は拒否する。
	CreateAdmin(ctx context.Context, input setup.CreateAdminInput) (*model.User, error)
}

// AdminExistsChecker は管理者の存在確認インターフェース。
type AdminExistsChecker interface {
	AdminExists(ctx context.Context) (bool, error)
}

// SetupHandler は初期セットアップのHTTPハンドラー。
type SetupHandler struct {
	service SetupServiceInterface
	checker AdminExistsChecker
}

// NewSetupHandler はSetupHandlerを生成する。
func NewSetupHandler(service SetupServiceInterface, checker AdminExistsChecker) *SetupHandler {
	return &SetupHandler{
		service: service,
		checker: checker,
	}
}

// createAdminRequest は初回管理者作成リクエストのボディ。
type createAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	SetupKey string `json:"setupKey"`
}

// CreateAdmin は初回管理者を作成する。
// POST /setup/create-admin
func (h *SetupHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	admin, err := h.service.CreateAdmin(r.Context(), setup.CreateAdminInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		SetupKey: req.SetupKey,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "管理者アカウントを作成しました。",
		"user":    admin.Sanitize(),
	})
}

// SystemStatus は管理者アカウントの有無を返す内部プローブ。
// GET /internal/system-status
//
// フロントエンドのミドルウェアが段階判定に使用する。認証不要。
// 管理者の有無以外の情報は一切含めない。
func (h *SetupHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	exists, err := h.checker.AdminExists(r.Context())
	if err != nil {
		slog.Error("failed to check admin existence", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
			Code:     model.ErrCodeInternal,
			Message:  "システム状態を確認できませんでした。",
			Category: "system",
			Action:   "しばらく待ってから再度お試しください。",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{
		"adminExists": exists,
	})
}
