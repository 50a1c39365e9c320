package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 표준 에러 응답 구조
type ErrorResponse struct {
	Error    string `json:"error"`              // 에러 코드 (프론트엔드에서 매핑용)
	Message  string `json:"message"`            // 사용자에게 보여질 메시지
	Redirect string `json:"redirect,omitempty"` // 로그인 필요 시 이동할 경로
}

// RespondWithError 에러 응답 헬퍼
// statusCode: HTTP 상태 코드
// errorCode: 에러 코드 상수 (codes.go 참조)
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// 자주 사용하는 에러 응답 단축 함수들

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Please log in to continue."
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

// LoginRequired 로그인 페이지로 이동해야 하는 401 응답
func LoginRequired(c *gin.Context, message, redirect string) {
	if message == "" {
		message = "Please log in to continue."
	}
	c.JSON(http.StatusUnauthorized, ErrorResponse{
		Error:    AuthUnauthorized,
		Message:  message,
		Redirect: redirect,
	})
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func TooManyRequests(c *gin.Context) {
	RespondWithError(c, http.StatusTooManyRequests, RateLimited, "Too many requests. Please slow down.")
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again shortly."
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// ValidationError 검증 에러 (선택: 여러 필드 검증 오류)
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"` // 필드별 오류 메시지
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "Some fields are invalid.",
		Fields:  fields,
	})
}
