package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/authgate/internal/model"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn        func(ctx context.Context, id string) (*model.User, error)
	findByUsernameFn  func(ctx context.Context, username string) (*model.User, error)
	listFn            func(ctx context.Context) ([]*model.User, error)
	createFn          func(ctx context.Context, user *model.User) error
	updateFn          func(ctx context.Context, user *model.User) error
	updateLastLoginFn func(ctx context.Context, id string) error
	deleteByIDFn      func(ctx context.Context, id string) error
	adminExistsFn     func(ctx context.Context) (bool, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) AdminExists(ctx context.Context) (bool, error) {
	if m.adminExistsFn != nil {
		return m.adminExistsFn(ctx)
	}
	return false, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

func testUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	return &model.User{
		ID:           "user-id-1",
		Username:     "alice",
		PasswordHash: hash,
		Name:         "Alice",
		Role:         model.RoleUser,
		CreatedAt:    time.Now(),
	}
}

// --- Login ---

func TestLogin_Success_CreatesSessionAndTouchesLastLogin(t *testing.T) {
	user := testUser(t, "password123")

	var createdSession *model.Session
	var lastLoginTouched bool

	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			if username != "alice" {
				t.Errorf("username = %q, want %q", username, "alice")
			}
			return user, nil
		},
		updateLastLoginFn: func(ctx context.Context, id string) error {
			lastLoginTouched = true
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	session, gotUser, err := svc.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if gotUser.ID != user.ID {
		t.Errorf("user.ID = %q, want %q", gotUser.ID, user.ID)
	}
	if !lastLoginTouched {
		t.Error("最終ログイン日時が更新されていない")
	}
	if createdSession == nil {
		t.Fatal("セッションが永続化されていない")
	}
	if session.ID != createdSession.ID {
		t.Error("返却されたセッションと永続化されたセッションが一致しない")
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 (32 bytes hex)", len(session.ID))
	}
	if session.UserID != user.ID {
		t.Errorf("session.UserID = %q, want %q", session.UserID, user.ID)
	}

	// 有効期限が約24時間後であること
	wantExpiry := time.Now().Add(24 * time.Hour)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", session.ExpiresAt, wantExpiry)
	}
}

// ユーザー不在とパスワード不一致が同一のエラーを返すことを検証
// （ユーザー名列挙攻撃の防止）。
func TestLogin_UserNotFoundAndBadPassword_SameError(t *testing.T) {
	user := testUser(t, "password123")

	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			if username == "alice" {
				return user, nil
			}
			return nil, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, nil)

	_, _, errNoUser := svc.Login(context.Background(), "nobody", "password123")
	_, _, errBadPass := svc.Login(context.Background(), "alice", "wrong-password")

	var apiErrNoUser, apiErrBadPass *model.APIError
	if !errors.As(errNoUser, &apiErrNoUser) {
		t.Fatalf("ユーザー不在時のエラーがAPIErrorではない: %v", errNoUser)
	}
	if !errors.As(errBadPass, &apiErrBadPass) {
		t.Fatalf("パスワード不一致時のエラーがAPIErrorではない: %v", errBadPass)
	}
	if apiErrNoUser.Code != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", apiErrNoUser.Code, model.ErrCodeInvalidCredentials)
	}
	if apiErrNoUser.Code != apiErrBadPass.Code || apiErrNoUser.Message != apiErrBadPass.Message {
		t.Error("ユーザー不在とパスワード不一致でエラー内容が異なる（列挙攻撃が可能になる）")
	}
}

func TestLogin_RepoError_Propagates(t *testing.T) {
	userRepo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, nil)

	_, _, err := svc.Login(context.Background(), "alice", "password123")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Error("インフラ障害がAPIErrorとして返った（500系として扱われない）")
	}
}

// --- Logout ---

func TestLogout_DeletesSession(t *testing.T) {
	var deletedID string
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(&mockUserRepo{}, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	if err := svc.Logout(context.Background(), "session-abc"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if deletedID != "session-abc" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "session-abc")
	}
}

func TestLogout_EmptySessionID_NoOp(t *testing.T) {
	called := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			called = true
			return nil
		},
	}
	svc := NewService(&mockUserRepo{}, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if called {
		t.Error("空セッションIDで削除が呼ばれた")
	}
}

// --- GetSession / GetCurrentUser ---

func TestGetSession_MissOrExpired_ReturnsNil(t *testing.T) {
	// リポジトリは期限切れをnilとして返す契約のため、このモックはnilを返す
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}
	svc := NewService(&mockUserRepo{}, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	session, err := svc.GetSession(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if session != nil {
		t.Error("無効なセッションIDでセッションが返った")
	}
}

func TestGetCurrentUser_ValidSession_ReturnsUser(t *testing.T) {
	user := testUser(t, "password123")
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return user, nil
		},
	}
	svc := NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	got, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("got = %+v, want user %q", got, user.ID)
	}
}

// 孤児セッション（参照先ユーザーが削除済み）が未認証扱いになることを検証
func TestGetCurrentUser_OrphanedSession_ReturnsNilWithoutError(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "deleted-user", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(userRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400}, nil)

	got, err := svc.GetCurrentUser(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("孤児セッションがエラーになった: %v", err)
	}
	if got != nil {
		t.Error("削除済みユーザーのセッションでユーザーが返った")
	}
}

func TestGetCurrentUser_EmptySessionID_ReturnsNil(t *testing.T) {
	svc := NewService(&mockUserRepo{}, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, nil)

	got, err := svc.GetCurrentUser(context.Background(), "")
	if err != nil {
		t.Fatalf("GetCurrentUser returned error: %v", err)
	}
	if got != nil {
		t.Error("空セッションIDでユーザーが返った")
	}
}

// --- AdminExists ---

// AdminExistsがリポジトリに毎回委譲することを検証（プロセス内キャッシュなし）
func TestAdminExists_DelegatesEveryCall(t *testing.T) {
	calls := 0
	userRepo := &mockUserRepo{
		adminExistsFn: func(ctx context.Context) (bool, error) {
			calls++
			return calls > 1, nil
		},
	}
	svc := NewService(userRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400}, nil)

	first, err := svc.AdminExists(context.Background())
	if err != nil {
		t.Fatalf("AdminExists returned error: %v", err)
	}
	second, err := svc.AdminExists(context.Background())
	if err != nil {
		t.Fatalf("AdminExists returned error: %v", err)
	}

	if first != false || second != true {
		t.Errorf("AdminExists = (%v, %v), want (false, true): 結果がキャッシュされている可能性", first, second)
	}
	if calls != 2 {
		t.Errorf("repo calls = %d, want 2", calls)
	}
}
