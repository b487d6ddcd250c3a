package service

import (
	"errors"
	"fmt"
	"time"

	experienceModel "experience_booking/internal/domain/experience/model"
	experienceRepo "experience_booking/internal/domain/experience/repository"
	"experience_booking/internal/domain/order/model"
	"experience_booking/internal/domain/order/repository"
	userRepo "experience_booking/internal/domain/user/repository"
	"experience_booking/pkg/logger"
	"experience_booking/pkg/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPackageNotFound   = errors.New("package not found")
	ErrInsufficientSlots = errors.New("not enough slots available")
)

// DuplicateBookingError 同一用户在重叠档期内已有该套餐的预订
type DuplicateBookingError struct {
	Start time.Time
	End   time.Time
}

func (e *DuplicateBookingError) Error() string {
	return fmt.Sprintf(
		"You already have a booking for this experience from %s to %s",
		e.Start.Format("02/01/2006"),
		e.End.Format("02/01/2006"),
	)
}

// Notifier 预订确认通知出口
// 实现方负责投递方式（异步队列、重试），Book 只关心成功与否且失败不回滚订单
type Notifier interface {
	BookingConfirmed(email string, order *model.Order, pkg *experienceModel.Package) error
}

// BookInput 下单入参
type BookInput struct {
	UserID         string
	PackageID      string
	NumberOfPeople int
	CouponCode     string
	PaymentMethod  string
	StartDate      *time.Time
}

// BookResult 下单结果：订单 + 折扣节省金额
type BookResult struct {
	Order       *model.Order
	SavedAmount decimal.Decimal
}

// BookingService 预订服务接口
type BookingService interface {
	// Book 创建一笔预订：校验库存与折扣码、检查档期冲突、
	// 计算价格并在事务内扣减名额，成功后异步发送确认邮件
	Book(input BookInput) (*BookResult, error)
	ListOrders(userID string) ([]model.Order, error)
}

type bookingService struct {
	orderRepo   repository.OrderRepository
	packageRepo experienceRepo.PackageRepository
	userRepo    userRepo.UserRepository
	couponSvc   CouponService
	notifier    Notifier
	now         func() time.Time
}

func NewBookingService(
	orderRepo repository.OrderRepository,
	packageRepo experienceRepo.PackageRepository,
	userRepository userRepo.UserRepository,
	couponSvc CouponService,
	notifier Notifier,
) BookingService {
	return &bookingService{
		orderRepo:   orderRepo,
		packageRepo: packageRepo,
		userRepo:    userRepository,
		couponSvc:   couponSvc,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *bookingService) Book(input BookInput) (*BookResult, error) {
	// 1. 加载套餐
	pkg, err := s.packageRepo.GetByID(input.PackageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.RecordBooking("package_not_found", 0)
			return nil, ErrPackageNotFound
		}
		metrics.RecordBooking("error", 0)
		return nil, err
	}

	// 2. 预检库存（事务内还有一次带守卫的最终检查，这里只为快速失败）
	if pkg.AvailableSlots < input.NumberOfPeople {
		metrics.RecordBooking("insufficient_slots", 0)
		return nil, ErrInsufficientSlots
	}

	// 3. 折扣码校验（可选）
	discountPercentage := 0
	if input.CouponCode != "" {
		discountPercentage, err = s.couponSvc.Validate(input.PackageID, input.CouponCode, s.now())
		if err != nil {
			metrics.RecordBooking("invalid_coupon", 0)
			return nil, err
		}
	}

	// 4. 计算档期：未指定出发日期则从当前时刻起，时长按套餐天数
	start := s.now()
	if input.StartDate != nil {
		start = *input.StartDate
	}
	end := start.AddDate(0, 0, pkg.Duration)

	// 5. 档期冲突检查
	existing, err := s.orderRepo.FindOverlapping(input.UserID, input.PackageID, start, end)
	if err != nil {
		metrics.RecordBooking("error", 0)
		return nil, err
	}
	if existing != nil {
		metrics.RecordBooking("overlap", 0)
		return nil, &DuplicateBookingError{Start: existing.Start, End: existing.End}
	}

	// 6. 价格计算
	quote := ComputeQuote(pkg.Price, input.NumberOfPeople, discountPercentage)

	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentMethodOnline
	}

	order := &model.Order{
		PackageID:      input.PackageID,
		UserID:         input.UserID,
		Start:          start,
		End:            end,
		NumberOfPeople: input.NumberOfPeople,
		TotalPrice:     quote.BasePrice,
		YourPrice:      quote.FinalPrice,
		Status:         model.OrderStatusConfirmed,
		PaymentMethod:  paymentMethod,
	}

	// 7. 事务内条件扣减库存并落单
	if err := s.orderRepo.CreateWithSlotReservation(order); err != nil {
		if errors.Is(err, repository.ErrNotEnoughSlots) {
			metrics.RecordBooking("insufficient_slots", 0)
			return nil, ErrInsufficientSlots
		}
		metrics.RecordBooking("error", 0)
		return nil, err
	}

	metrics.RecordBooking("confirmed", input.NumberOfPeople)

	// 8. 发送确认邮件：订单已提交，通知失败只记日志
	if user, err := s.userRepo.GetByID(input.UserID); err != nil {
		logger.Log.Warn("load user for booking confirmation failed",
			zap.String("user_id", input.UserID),
			zap.String("order_id", order.ID),
			zap.Error(err))
	} else if err := s.notifier.BookingConfirmed(user.Email, order, pkg); err != nil {
		logger.Log.Warn("booking confirmation email failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}

	return &BookResult{Order: order, SavedAmount: quote.DiscountAmount}, nil
}

func (s *bookingService) ListOrders(userID string) ([]model.Order, error) {
	return s.orderRepo.ListByUser(userID)
}
