// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeSelfDelete         = "SELF_DELETE_FORBIDDEN"
	ErrCodeSetupNotConfigured = "SETUP_NOT_CONFIGURED"
	ErrCodeSetupKeyInvalid    = "SETUP_KEY_INVALID"
	ErrCodeAdminExists        = "ADMIN_ALREADY_EXISTS"
	ErrCodePhaseCheckFailed   = "PHASE_CHECK_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// ユーザー名の存在有無とパスワード不一致を区別しない
// （ユーザー名の列挙攻撃を防ぐため、常に同一のエラーを返す）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "ユーザー名とパスワードを確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は認可エラーを生成する。
// 未ログインと権限不足を区別した詳細はメッセージに含めない。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "管理者アカウントでログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(userID string) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %s", userID),
		Category: "validation",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "このユーザー名は既に使用されています。",
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewSelfDeleteError は自分自身の削除を試みた場合のエラーを生成する。
func NewSelfDeleteError() *APIError {
	return &APIError{
		Code:     ErrCodeSelfDelete,
		Message:  "自分自身のアカウントは削除できません。",
		Category: "validation",
		Action:   "他の管理者アカウントから削除してください。",
	}
}

// NewSetupNotConfiguredError はセットアップキー未設定エラーを生成する。
func NewSetupNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeSetupNotConfigured,
		Message:  "セットアップが構成されていません。SETUP_KEY環境変数が未設定です。",
		Category: "system",
		Action:   "サーバーの環境変数SETUP_KEYを設定してください。",
	}
}

// NewSetupKeyInvalidError はセットアップキー不一致エラーを生成する。
func NewSetupKeyInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeSetupKeyInvalid,
		Message:  "セットアップキーが正しくありません。",
		Category: "auth",
		Action:   "サーバーに設定されたセットアップキーを確認してください。",
	}
}

// NewAdminExistsError は管理者が既に存在する場合のエラーを生成する。
// 管理者作成後のセットアップ再実行（再ブートストラップ）を拒否する。
func NewAdminExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeAdminExists,
		Message:  "管理者は既に存在します。セットアップは使用できません。",
		Category: "auth",
		Action:   "既存の管理者アカウントでログインしてください。",
	}
}
