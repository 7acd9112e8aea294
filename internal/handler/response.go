// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/jobportal/internal/middleware"
	"github.com/hitoshi/jobportal/internal/model"
)

// maxRequestBodySize はJSONリクエストボディの上限（1MiB）。
const maxRequestBodySize = 1 << 20

// messageResponse は操作結果のメッセージのみを返すレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はvをJSONとしてステータスコード付きで書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeMessage は{"message": ...}形式のレスポンスを書き込む。
func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Message: message})
}

// decodeJSON はリクエストボディをvにデコードする。
// 失敗した場合は400を書き込み、falseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Request body must be valid JSON."))
		return false
	}
	return true
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに記録し、internalMessageを500で返す。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", chimw.GetReqID(r.Context())),
	)
	middleware.WriteInternalServerError(w, internalMessage)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// メールアドレス重複・認証失敗・重複応募は既存クライアントとの互換のため400を返す。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation,
		model.ErrCodeEmailExists,
		model.ErrCodeInvalidCredentials,
		model.ErrCodeDuplicateApplication:
		return http.StatusBadRequest
	case model.ErrCodeAccountNotFound,
		model.ErrCodeApplicationNotFound,
		model.ErrCodeJobNotFound:
		return http.StatusNotFound
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requirePrincipalFor は認証主体がemailのアカウントとして操作できるかを検証する。
// 不可の場合はエラーレスポンスを書き込み、falseを返す。
func requirePrincipalFor(w http.ResponseWriter, r *http.Request, email string) bool {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return false
	}
	if !p.CanActAs(email) {
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return false
	}
	return true
}

// emailParam はパスパラメータのメールアドレスをデコードして返す。
// RawPathがある場合chiはそれでルーティングするため、%40などのエスケープはここで戻す。
// RawPathが空ならパラメータはデコード済みなので二重にデコードしない。
// デコードできない場合は400を書き込み、falseを返す。
func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "email")
	if r.URL.RawPath == "" {
		return raw, true
	}

	email, err := url.PathUnescape(raw)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("Email in path is not valid."))
		return "", false
	}
	return email, true
}
