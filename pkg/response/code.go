package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005
	ErrVerifyFailed = 10006

	// 体验/套餐模块错误 200xx
	ErrPackageNotFound = 20001
	ErrImageRequired   = 20002

	// 订单模块错误 300xx
	ErrCouponNotFound    = 30001
	ErrCouponNotYetValid = 30002
	ErrCouponExpired     = 30003
	ErrInsufficientSlots = 30004
	ErrBookingOverlap    = 30005

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
