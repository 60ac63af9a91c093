package repository

import "errors"

// ErrDuplicateUsername はusersテーブルのUNIQUE制約違反を表す。
// アプリケーション層の事前チェックをすり抜けた競合INSERTもこのエラーに正規化される。
var ErrDuplicateUsername = errors.New("username already exists")
