package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/authgate/internal/model"
	"github.com/hitoshi/authgate/internal/user"
)

// UserServiceInterface はユーザー管理ハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, input user.CreateInput) (*model.User, error)
	Update(ctx context.Context, id string, input user.UpdateInput) (*model.User, error)
	// Delete は対象ユーザーと全セッションを削除する。callerIDと同一の場合は拒否する。
	Delete(ctx context.Context, callerID, targetID string) error
}

// CurrentUserResolver はセッションIDから呼び出し元ユーザーを解決するインターフェース。
// auth.Serviceの部分集合として定義する。
type CurrentUserResolver interface {
	GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error)
}

// UserHandler はユーザー管理（管理者専用）のHTTPハンドラー。
type UserHandler struct {
	service  UserServiceInterface
	resolver CurrentUserResolver
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, resolver CurrentUserResolver) *UserHandler {
	return &UserHandler{
		service:  service,
		resolver: resolver,
	}
}

// requireAdmin は呼び出し元を解決し、管理者でなければエラーレスポンスを書き込む。
// 戻り値がnilの場合、レスポンスは書き込み済み。
//
// 未認証と権限不足は別コードを返すが、存在しないリソースの探索ができない
// よう、管理者以外にはそれ以上の情報を渡さない。
func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request) *model.User {
	caller, err := h.resolver.GetCurrentUser(r.Context(), sessionIDFromRequest(r))
	if err != nil {
		handleServiceError(w, err)
		return nil
	}
	if caller == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil
	}
	if caller.Role != model.RoleAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return nil
	}
	return caller
}

// List は全ユーザーの一覧を返す。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	if caller := h.requireAdmin(w, r); caller == nil {
		return
	}

	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	sanitized := make([]model.SanitizedUser, len(users))
	for i, u := range users {
		sanitized[i] = u.Sanitize()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": sanitized,
	})
}

// Get は単一ユーザーの詳細を返す。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if caller := h.requireAdmin(w, r); caller == nil {
		return
	}

	u, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": u.Sanitize(),
	})
}

// createUserRequest はユーザー作成リクエストのボディ。
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// Create は新規ユーザーを作成する。
// POST /users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if caller := h.requireAdmin(w, r); caller == nil {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	created, err := h.service.Create(r.Context(), user.CreateInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "ユーザーを作成しました。",
		"userId":  created.ID,
	})
}

// updateUserRequest はユーザー更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Role     *string `json:"role"`
}

// Update はユーザーを部分更新する。
// PATCH /users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	if caller := h.requireAdmin(w, r); caller == nil {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), user.UpdateInput{
		Username: req.Username,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": updated.Sanitize(),
	})
}

// Delete はユーザーと関連セッションを削除する。
// DELETE /users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller := h.requireAdmin(w, r)
	if caller == nil {
		return
	}

	if err := h.service.Delete(r.Context(), caller.ID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "ユーザーを削除しました。",
	})
}
