package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"  // 로그인 필요
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED" // 토큰 만료
	AuthTokenInvalid = "AUTH_TOKEN_INVALID" // 잘못된 토큰

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound = "RESOURCE_NOT_FOUND" // 리소스 없음

	// ==================== 장바구니 (CART_) ====================
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"      // 장바구니 항목 없음
	CartEmpty           = "CART_EMPTY"               // 장바구니 비어 있음
	CartInvalidQuantity = "CART_INVALID_QUANTITY"    // 수량 1 미만
	CartInvalidVariant  = "CART_INVALID_VARIANT"     // 선택할 수 없는 사이즈/색상
	CartServiceRejected = "CART_SERVICE_REJECTED"    // 장바구니 서버 거절
	CartServiceDown     = "CART_SERVICE_UNREACHABLE" // 장바구니 서버 연결 실패
	CartOutOfSync       = "CART_OUT_OF_SYNC"         // 변경은 성공, 재동기화 실패

	// ==================== 상품 (PRODUCT_) ====================
	ProductNotFound = "PRODUCT_NOT_FOUND" // 상품 없음

	// ==================== 주문 (ORDER_) ====================
	OrderNotFound    = "ORDER_NOT_FOUND"    // 주문 없음
	OrderPlaceFailed = "ORDER_PLACE_FAILED" // 주문 생성 실패

	// ==================== 요청 제한 (RATE_) ====================
	RateLimited = "RATE_LIMITED" // 요청 과다

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
