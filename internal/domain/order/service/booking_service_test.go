package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	experienceModel "experience_booking/internal/domain/experience/model"
	"experience_booking/internal/domain/order/model"
	"experience_booking/internal/domain/order/repository"
	userModel "experience_booking/internal/domain/user/model"
	"experience_booking/pkg/logger"
	baseModel "experience_booking/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func init() {
	logger.InitLogger(true)
}

// MockOrderRepository is a mock of OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindOverlapping(userID, packageID string, start, end time.Time) (*model.Order, error) {
	args := m.Called(userID, packageID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) CreateWithSlotReservation(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) ListByUser(userID string) ([]model.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockPackageRepository is a mock of the experience PackageRepository
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) Create(pkg *experienceModel.Package) error {
	args := m.Called(pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) GetByID(id string) (*experienceModel.Package, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*experienceModel.Package), args.Error(1)
}

func (m *MockPackageRepository) GetList(offset, limit int) ([]experienceModel.Package, int64, error) {
	args := m.Called(offset, limit)
	return args.Get(0).([]experienceModel.Package), args.Get(1).(int64), args.Error(2)
}

func (m *MockPackageRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockPackageRepository) AddFavourite(userID, packageID string) error {
	args := m.Called(userID, packageID)
	return args.Error(0)
}

func (m *MockPackageRepository) RemoveFavourite(userID, packageID string) error {
	args := m.Called(userID, packageID)
	return args.Error(0)
}

func (m *MockPackageRepository) GetFavourites(userID string) ([]experienceModel.Package, error) {
	args := m.Called(userID)
	return args.Get(0).([]experienceModel.Package), args.Error(1)
}

// MockUserRepository is a mock of the user UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByIdentifier(identifier string) (*userModel.User, error) {
	args := m.Called(identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(email, username string) (bool, error) {
	args := m.Called(email, username)
	return args.Bool(0), args.Error(1)
}

// MockCouponService is a mock of CouponService
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Validate(packageID, code string, now time.Time) (int, error) {
	args := m.Called(packageID, code, now)
	return args.Int(0), args.Error(1)
}

func (m *MockCouponService) ListActive(packageID string, now time.Time) ([]model.Coupon, error) {
	args := m.Called(packageID, now)
	return args.Get(0).([]model.Coupon), args.Error(1)
}

func (m *MockCouponService) CreateCoupon(packageID, code string, discountPercentage int, validFrom, validUntil time.Time) (*model.Coupon, error) {
	args := m.Called(packageID, code, discountPercentage, validFrom, validUntil)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

// MockNotifier is a mock of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) BookingConfirmed(email string, order *model.Order, pkg *experienceModel.Package) error {
	args := m.Called(email, order, pkg)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func createTestPackage(price int64, slots, duration int) *experienceModel.Package {
	return &experienceModel.Package{
		BaseModel:      baseModel.BaseModel{ID: "pkg-1"},
		Title:          "Mountain Trek",
		Price:          decimal.NewFromInt(price),
		Duration:       duration,
		AvailableSlots: slots,
	}
}

func createTestUser() *userModel.User {
	return &userModel.User{
		BaseModel: baseModel.BaseModel{ID: "user-1"},
		Username:  "traveller",
		Email:     "traveller@example.com",
		Role:      userModel.RoleUser,
	}
}

func newTestBookingService(
	orderRepo *MockOrderRepository,
	packageRepo *MockPackageRepository,
	users *MockUserRepository,
	coupons *MockCouponService,
	notifier *MockNotifier,
) *bookingService {
	svc := NewBookingService(orderRepo, packageRepo, users, coupons, notifier).(*bookingService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestBook(t *testing.T) {
	t.Run("Booking without coupon charges full price", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", fixedNow, fixedNow.AddDate(0, 0, 2)).Return(nil, nil)
		orderRepo.On("CreateWithSlotReservation", mock.AnythingOfType("*model.Order")).Return(nil)
		users.On("GetByID", "user-1").Return(createTestUser(), nil)
		notifier.On("BookingConfirmed", "traveller@example.com", mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2})

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2000).Equal(result.Order.TotalPrice))
		assert.True(t, decimal.NewFromInt(2000).Equal(result.Order.YourPrice))
		assert.True(t, result.SavedAmount.IsZero())
		assert.Equal(t, model.OrderStatusConfirmed, result.Order.Status)
		assert.Equal(t, model.PaymentMethodOnline, result.Order.PaymentMethod)
		assert.Equal(t, fixedNow, result.Order.Start)
		assert.Equal(t, fixedNow.AddDate(0, 0, 2), result.Order.End)
		orderRepo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("Valid coupon reduces price by exact percentage", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		coupons.On("Validate", "pkg-1", "SAVE10", fixedNow).Return(10, nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", fixedNow, fixedNow.AddDate(0, 0, 2)).Return(nil, nil)
		orderRepo.On("CreateWithSlotReservation", mock.AnythingOfType("*model.Order")).Return(nil)
		users.On("GetByID", "user-1").Return(createTestUser(), nil)
		notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2, CouponCode: "SAVE10"})

		assert.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2000).Equal(result.Order.TotalPrice))
		assert.True(t, decimal.NewFromInt(1800).Equal(result.Order.YourPrice))
		assert.True(t, decimal.NewFromInt(200).Equal(result.SavedAmount))
		coupons.AssertExpectations(t)
	})

	t.Run("Headcount above available slots fails without touching state", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 10})

		assert.ErrorIs(t, err, ErrInsufficientSlots)
		assert.Nil(t, result)
		orderRepo.AssertNotCalled(t, "CreateWithSlotReservation", mock.Anything)
		notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Concurrent slot loss surfaces as insufficient slots", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		// 预检通过，但事务内的守卫更新因并发扣减零行命中
		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", fixedNow, fixedNow.AddDate(0, 0, 2)).Return(nil, nil)
		orderRepo.On("CreateWithSlotReservation", mock.AnythingOfType("*model.Order")).Return(repository.ErrNotEnoughSlots)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2})

		assert.ErrorIs(t, err, ErrInsufficientSlots)
		assert.Nil(t, result)
		notifier.AssertNotCalled(t, "BookingConfirmed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Overlapping booking rejected citing existing dates", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		existing := &model.Order{
			Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		}
		start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", start, start.AddDate(0, 0, 2)).Return(existing, nil)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2, StartDate: &start})

		var dup *DuplicateBookingError
		assert.ErrorAs(t, err, &dup)
		assert.Equal(t, existing.Start, dup.Start)
		assert.Equal(t, existing.End, dup.End)
		assert.Contains(t, err.Error(), "from 01/06/2024 to 03/06/2024")
		assert.Nil(t, result)
		orderRepo.AssertNotCalled(t, "CreateWithSlotReservation", mock.Anything)
	})

	t.Run("Back to back booking counts as overlap", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		// 已有行程 6/1-6/3，新行程从 6/3 开始：闭区间比较下边界相接也算冲突
		existing := &model.Order{
			Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		}
		start := existing.End
		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", start, start.AddDate(0, 0, 2)).Return(existing, nil)

		_, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 1, StartDate: &start})

		var dup *DuplicateBookingError
		assert.ErrorAs(t, err, &dup)
		orderRepo.AssertNotCalled(t, "CreateWithSlotReservation", mock.Anything)
	})

	t.Run("Non overlapping future booking succeeds", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		start := time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC)
		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", start, start.AddDate(0, 0, 2)).Return(nil, nil)
		orderRepo.On("CreateWithSlotReservation", mock.AnythingOfType("*model.Order")).Return(nil)
		users.On("GetByID", "user-1").Return(createTestUser(), nil)
		notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 1, StartDate: &start})

		assert.NoError(t, err)
		assert.Equal(t, start, result.Order.Start)
		assert.Equal(t, start.AddDate(0, 0, 2), result.Order.End)
	})

	t.Run("Coupon errors block the booking", func(t *testing.T) {
		for _, couponErr := range []error{ErrCouponNotFound, ErrCouponNotYetValid, ErrCouponExpired} {
			orderRepo := new(MockOrderRepository)
			packageRepo := new(MockPackageRepository)
			users := new(MockUserRepository)
			coupons := new(MockCouponService)
			notifier := new(MockNotifier)
			svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

			packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
			coupons.On("Validate", "pkg-1", "BADCODE", fixedNow).Return(0, couponErr)

			result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2, CouponCode: "BADCODE"})

			assert.ErrorIs(t, err, couponErr)
			assert.Nil(t, result)
			orderRepo.AssertNotCalled(t, "CreateWithSlotReservation", mock.Anything)
		}
	})

	t.Run("Package not found", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		packageRepo.On("GetByID", "missing").Return(nil, gorm.ErrRecordNotFound)

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "missing", NumberOfPeople: 1})

		assert.ErrorIs(t, err, ErrPackageNotFound)
		assert.Nil(t, result)
	})

	t.Run("Notifier failure does not fail the booking", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, 5, 2), nil)
		orderRepo.On("FindOverlapping", "user-1", "pkg-1", fixedNow, fixedNow.AddDate(0, 0, 2)).Return(nil, nil)
		orderRepo.On("CreateWithSlotReservation", mock.AnythingOfType("*model.Order")).Return(nil)
		users.On("GetByID", "user-1").Return(createTestUser(), nil)
		notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

		result, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 2})

		assert.NoError(t, err)
		assert.NotNil(t, result.Order)
		notifier.AssertExpectations(t)
	})
}

// contendedOrderRepository 模拟守卫扣减：扣减串行化，库存不够的请求失败
type contendedOrderRepository struct {
	mu    sync.Mutex
	slots int
}

func (r *contendedOrderRepository) FindOverlapping(userID, packageID string, start, end time.Time) (*model.Order, error) {
	return nil, nil
}

func (r *contendedOrderRepository) CreateWithSlotReservation(order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slots < order.NumberOfPeople {
		return repository.ErrNotEnoughSlots
	}
	r.slots -= order.NumberOfPeople
	return nil
}

func (r *contendedOrderRepository) ListByUser(userID string) ([]model.Order, error) {
	return nil, nil
}

func TestBookConcurrent(t *testing.T) {
	t.Run("Exactly k of n concurrent bookings win the last slots", func(t *testing.T) {
		const n, k = 5, 3

		orderRepo := &contendedOrderRepository{slots: k}
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)

		// 所有请求的预检都看到同一份快照，胜负由守卫扣减决定
		packageRepo.On("GetByID", "pkg-1").Return(createTestPackage(1000, k, 2), nil)
		users.On("GetByID", mock.Anything).Return(createTestUser(), nil)
		notifier.On("BookingConfirmed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		svc := NewBookingService(orderRepo, packageRepo, users, coupons, notifier).(*bookingService)
		svc.now = func() time.Time { return fixedNow }

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := svc.Book(BookInput{UserID: "user-1", PackageID: "pkg-1", NumberOfPeople: 1})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var confirmed, rejected int
		for err := range errs {
			switch {
			case err == nil:
				confirmed++
			case errors.Is(err, ErrInsufficientSlots):
				rejected++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}

		assert.Equal(t, k, confirmed)
		assert.Equal(t, n-k, rejected)
		assert.Equal(t, 0, orderRepo.slots)
	})
}

func TestListOrders(t *testing.T) {
	t.Run("Returns user orders", func(t *testing.T) {
		orderRepo := new(MockOrderRepository)
		packageRepo := new(MockPackageRepository)
		users := new(MockUserRepository)
		coupons := new(MockCouponService)
		notifier := new(MockNotifier)
		svc := newTestBookingService(orderRepo, packageRepo, users, coupons, notifier)

		orders := []model.Order{{UserID: "user-1"}, {UserID: "user-1"}}
		orderRepo.On("ListByUser", "user-1").Return(orders, nil)

		result, err := svc.ListOrders("user-1")

		assert.NoError(t, err)
		assert.Len(t, result, 2)
	})
}
