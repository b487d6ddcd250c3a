package handler

import (
	"errors"
	"net/http"
	"time"

	"experience_booking/internal/domain/order/model"
	"experience_booking/internal/domain/order/service"
	"experience_booking/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler 预订处理器
type OrderHandler struct {
	bookingService service.BookingService
	couponService  service.CouponService
}

// NewOrderHandler 创建处理器
func NewOrderHandler(bookingService service.BookingService, couponService service.CouponService) *OrderHandler {
	return &OrderHandler{bookingService: bookingService, couponService: couponService}
}

// ValidateCouponInput 折扣码校验入参
type ValidateCouponInput struct {
	PackageID  string `json:"packageId" binding:"required"`
	CouponCode string `json:"couponCode" binding:"required"`
}

// BookInput 下单入参
type BookInput struct {
	NumberOfPeople int    `json:"numberOfPeople" binding:"required,min=1"`
	CouponCode     string `json:"couponCode"`
	PaymentMethod  string `json:"paymentMethod"`
	StartDate      string `json:"startDate"`
}

// couponView 对外的折扣码字段
type couponView struct {
	ID                 string    `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discountPercentage"`
	ValidFrom          time.Time `json:"validFrom"`
	ValidUntil         time.Time `json:"validUntil"`
}

// GetCoupons 列出套餐下未过期的折扣码
func (h *OrderHandler) GetCoupons(c *gin.Context) {
	coupons, err := h.couponService.ListActive(c.Param("packageId"), time.Now())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	views := make([]couponView, 0, len(coupons))
	for _, coupon := range coupons {
		views = append(views, couponView{
			ID:                 coupon.ID,
			Code:               coupon.Code,
			DiscountPercentage: coupon.DiscountPercentage,
			ValidFrom:          coupon.ValidFrom,
			ValidUntil:         coupon.ValidUntil,
		})
	}
	response.Success(c, gin.H{"coupons": views})
}

// ValidateCoupon 校验折扣码
func (h *OrderHandler) ValidateCoupon(c *gin.Context) {
	var input ValidateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid request body")
		return
	}

	discountPercentage, err := h.couponService.Validate(input.PackageID, input.CouponCode, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCouponNotFound):
			response.Error(c, http.StatusNotFound, response.ErrCouponNotFound, "Coupon not found")
		case errors.Is(err, service.ErrCouponNotYetValid):
			response.Error(c, http.StatusBadRequest, response.ErrCouponNotYetValid, "Coupon not yet valid")
		case errors.Is(err, service.ErrCouponExpired):
			response.Error(c, http.StatusBadRequest, response.ErrCouponExpired, "Coupon has expired")
		default:
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		}
		return
	}

	response.SuccessWithMessage(c, "Coupon applied successfully", gin.H{
		"valid":              true,
		"discountPercentage": discountPercentage,
	})
}

// Book 预订套餐
func (h *OrderHandler) Book(c *gin.Context) {
	var input BookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid request body")
		return
	}

	var startDate *time.Time
	if input.StartDate != "" {
		parsed, err := parseStartDate(input.StartDate)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid startDate")
			return
		}
		startDate = &parsed
	}

	result, err := h.bookingService.Book(service.BookInput{
		UserID:         c.GetString("userID"),
		PackageID:      c.Param("packageId"),
		NumberOfPeople: input.NumberOfPeople,
		CouponCode:     input.CouponCode,
		PaymentMethod:  input.PaymentMethod,
		StartDate:      startDate,
	})
	if err != nil {
		h.handleBookError(c, err)
		return
	}

	response.Created(c, "Booking successful! Confirmation email sent.", gin.H{
		"order":       result.Order,
		"savedAmount": result.SavedAmount,
	})
}

func (h *OrderHandler) handleBookError(c *gin.Context, err error) {
	var dup *service.DuplicateBookingError
	switch {
	case errors.Is(err, service.ErrPackageNotFound):
		response.Error(c, http.StatusNotFound, response.ErrPackageNotFound, "Package not found")
	case errors.Is(err, service.ErrInsufficientSlots):
		response.Error(c, http.StatusBadRequest, response.ErrInsufficientSlots, "Not enough slots available")
	case errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrCouponNotYetValid),
		errors.Is(err, service.ErrCouponExpired):
		response.Error(c, http.StatusBadRequest, response.ErrCouponNotFound, "Invalid or expired coupon code")
	case errors.As(err, &dup):
		response.Error(c, http.StatusBadRequest, response.ErrBookingOverlap, dup.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
	}
}

// CreateCouponInput 管理端创建折扣码入参
type CreateCouponInput struct {
	Code               string    `json:"code" binding:"required"`
	DiscountPercentage int       `json:"discountPercentage" binding:"required,min=0,max=100"`
	ValidFrom          time.Time `json:"validFrom" binding:"required"`
	ValidUntil         time.Time `json:"validUntil" binding:"required"`
}

// CreateCoupon 管理端为套餐创建折扣码
func (h *OrderHandler) CreateCoupon(c *gin.Context) {
	var input CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid request body")
		return
	}
	if input.ValidUntil.Before(input.ValidFrom) {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "validUntil must not be before validFrom")
		return
	}

	coupon, err := h.couponService.CreateCoupon(
		c.Param("id"), input.Code, input.DiscountPercentage, input.ValidFrom, input.ValidUntil,
	)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}
	response.Created(c, "Coupon created", gin.H{"coupon": coupon})
}

// MyOrders 获取当前用户的订单，并按出发时间切分为未来/历史行程
func (h *OrderHandler) MyOrders(c *gin.Context) {
	orders, err := h.bookingService.ListOrders(c.GetString("userID"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	now := time.Now()
	upcoming := make([]model.Order, 0)
	past := make([]model.Order, 0)
	for _, order := range orders {
		if order.Start.After(now) {
			upcoming = append(upcoming, order)
		} else {
			past = append(past, order)
		}
	}

	response.Success(c, gin.H{
		"orders":           orders,
		"upcomingJourneys": upcoming,
		"pastJourneys":     past,
		"totalOrders":      len(orders),
	})
}

// parseStartDate 兼容日期与完整时间戳两种入参格式
func parseStartDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
