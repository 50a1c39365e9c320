package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ikkim/storefront-bff/pkg/cartapi"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int    // HTTP 상태 코드
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// FromCartKind 장바구니 서버 오류 분류를 HTTP 응답으로 변환
// upstream: 서버가 응답한 상태 코드 (없으면 0)
func FromCartKind(kind cartapi.ErrorKind, message string, upstream int) ErrorInfo {
	switch kind {
	case cartapi.KindUnauthorized:
		return ErrorInfo{Status: http.StatusUnauthorized, Code: AuthUnauthorized, Message: message}
	case cartapi.KindValidation:
		return ErrorInfo{Status: http.StatusBadRequest, Code: validationCode(message), Message: message}
	case cartapi.KindNetwork:
		return ErrorInfo{Status: http.StatusServiceUnavailable, Code: CartServiceDown, Message: message}
	case cartapi.KindServer:
		// 4xx는 그대로 전달, 5xx는 게이트웨이 오류로
		status := http.StatusBadGateway
		if upstream >= 400 && upstream < 500 {
			status = upstream
		}
		return ErrorInfo{Status: status, Code: CartServiceRejected, Message: message}
	default:
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: message}
	}
}

func validationCode(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "quantity"):
		return CartInvalidQuantity
	case strings.Contains(lower, "size"), strings.Contains(lower, "color"):
		return CartInvalidVariant
	case strings.Contains(lower, "not found"):
		return CartItemNotFound
	}
	return ValidationInvalidInput
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨김
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Something went wrong."}
	}

	var cartErr *cartapi.Error
	if errors.As(err, &cartErr) {
		return FromCartKind(cartErr.Kind, cartErr.Message, cartErr.StatusCode)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Status: http.StatusNotFound, Code: ResourceNotFound, Message: "The requested resource was not found."}
	}

	if strings.Contains(strings.ToLower(err.Error()), "sql") {
		return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalDatabaseError, Message: "A storage error occurred. Please try again."}
	}

	return ErrorInfo{Status: http.StatusInternalServerError, Code: InternalServerError, Message: "Something went wrong. Please try again shortly."}
}

// Respond ErrorInfo를 JSON 응답으로 전송
func Respond(c *gin.Context, info ErrorInfo) {
	RespondWithError(c, info.Status, info.Code, info.Message)
}
