// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/authgate/internal/model"
)

// sessionCookieName はセッションIDを保持するCookieの名前。
const sessionCookieName = "perplexica_session"

// 経路判定に使用するパス。前方一致・先勝ちで分類する。
const (
	setupPathPrefix   = "/setup"
	loginPagePath     = "/login"
	loginEndpointPath = "/auth/login"
	systemStatusPath  = "/internal/system-status"
	healthzPath       = "/healthz"
	metricsPath       = "/metrics"
)

// AdminChecker はブートストラップ段階の判定に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type AdminChecker interface {
	AdminExists(ctx context.Context) (bool, error)
}

// NewGateMiddleware はリクエスト単位のルーティング状態機械を返す。
//
// 段階（BOOTSTRAP / OPERATIONAL）は毎リクエスト永続化層から再計算する。
// キャッシュは持たない: 初回管理者の作成直後、次のリクエストから
// OPERATIONALに切り替わる必要がある。
//
// 判定順序:
//  1. 内部プローブ（system-status, healthz, metrics）は無条件で通過。
//  2. 段階を計算。失敗時は503でフェイルクローズ
//     （どちらかの段階を仮定すると、セットアップの締め出しか
//     管理者作成の再開放のいずれかの穴が生じる）。
//  3. BOOTSTRAP: セットアップ経路のみ通過、それ以外は/setupへリダイレクト。
//  4. OPERATIONAL: セットアップ経路は/へリダイレクト（再ブートストラップ防止）、
//     ログイン経路は通過、それ以外はCookieの存在のみを確認する。
//     セッションの有効性検証はエンドポイント側に委ねる（安価な一次フィルタ）。
func NewGateMiddleware(checker AdminChecker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			// 1. 内部プローブは段階計算より先に通す
			//    （system-status自身が段階計算の材料になるため、ここで再帰を断つ）
			if isBypassPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			// 2. 段階の計算
			adminExists, err := checker.AdminExists(r.Context())
			if err != nil {
				slog.Error("failed to compute system phase",
					slog.String("error", err.Error()),
					slog.String("path", path),
				)
				WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
					Code:     model.ErrCodePhaseCheckFailed,
					Message:  "システム状態を確認できませんでした。",
					Category: "system",
					Action:   "しばらく待ってから再度お試しください。",
				})
				return
			}

			// 3. BOOTSTRAP段階: セットアップ以外はすべて/setupへ
			if !adminExists {
				if isSetupPath(path) {
					next.ServeHTTP(w, r)
					return
				}
				// クエリ文字列は引き継がない
				http.Redirect(w, r, setupPathPrefix, http.StatusTemporaryRedirect)
				return
			}

			// 4. OPERATIONAL段階
			if isSetupPath(path) {
				// 管理者作成後のセットアップ再実行を封鎖する
				http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
				return
			}
			if isPublicPath(path) {
				next.ServeHTTP(w, r)
				return
			}

			// 保護経路: Cookieの存在のみを確認する
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, loginRedirectURL(r), http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isBypassPath は段階によらず無条件に通過させるパスかどうかを返す。
func isBypassPath(path string) bool {
	return strings.HasPrefix(path, systemStatusPath) ||
		strings.HasPrefix(path, healthzPath) ||
		strings.HasPrefix(path, metricsPath)
}

// isSetupPath はセットアップ経路（セットアップページと管理者作成エンドポイント）かどうかを返す。
func isSetupPath(path string) bool {
	return strings.HasPrefix(path, setupPathPrefix)
}

// isPublicPath はセットアップ完了後も未認証でアクセスできる経路
// （ログインページとログインエンドポイント）かどうかを返す。
func isPublicPath(path string) bool {
	return strings.HasPrefix(path, loginPagePath) ||
		strings.HasPrefix(path, loginEndpointPath)
}

// loginRedirectURL はログイン後に元のページへ戻るためのリダイレクトURLを組み立てる。
// 元のパスとクエリ文字列をredirectパラメータとして保持する。
func loginRedirectURL(r *http.Request) string {
	target := r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return loginPagePath + "?redirect=" + url.QueryEscape(target)
}
