package order

import (
	experienceModel "experience_booking/internal/domain/experience/model"
	experienceRepo "experience_booking/internal/domain/experience/repository"
	"experience_booking/internal/domain/order/handler"
	"experience_booking/internal/domain/order/model"
	"experience_booking/internal/domain/order/repository"
	"experience_booking/internal/domain/order/service"
	userRepo "experience_booking/internal/domain/user/repository"
	"experience_booking/internal/pkg/mailer"
	"experience_booking/internal/pkg/middleware"
	"experience_booking/internal/pkg/registry"
	"experience_booking/internal/pkg/worker"

	"github.com/gin-gonic/gin"
)

// OrderModule 预订模块
type OrderModule struct{}

func init() {
	registry.Register(&OrderModule{})
}

func (m *OrderModule) Name() string {
	return "order"
}

func (m *OrderModule) Priority() int {
	return 20
}

func (m *OrderModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	couponRepo := repository.NewCouponRepository(ctx.DB)
	orderRepo := repository.NewOrderRepository(ctx.DB)
	packageRepo := experienceRepo.NewPackageRepository(ctx.DB)
	users := userRepo.NewUserRepository(ctx.DB)

	couponService := service.NewCouponService(couponRepo)
	bookingService := service.NewBookingService(
		orderRepo, packageRepo, users, couponService,
		&mailNotifier{dispatcher: ctx.Dispatcher},
	)
	orderHandler := handler.NewOrderHandler(bookingService, couponService)

	// 2. 路由注册
	setupRoutes(ctx.Router, orderHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.OrderHandler) {
	g := r.Group("/order")
	{
		g.GET("/coupons/:packageId", h.GetCoupons)
		g.POST("/validate-coupon", h.ValidateCoupon)

		authorized := g.Group("")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.POST("/experiences/:packageId/book", h.Book)
			authorized.GET("/my-orders", h.MyOrders)
		}
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/experiences/:id/coupons", h.CreateCoupon)
	}
}

// mailNotifier 把预订确认通知转成异步邮件任务
type mailNotifier struct {
	dispatcher *worker.MailDispatcher
}

func (n *mailNotifier) BookingConfirmed(email string, o *model.Order, pkg *experienceModel.Package) error {
	subject, htmlBody, textBody := mailer.BuildBookingConfirmation(mailer.BookingDetails{
		ExperienceName: pkg.Title,
		Date:           o.Start,
		Participants:   o.NumberOfPeople,
		TotalAmount:    o.YourPrice.StringFixed(2),
		BookingID:      o.ID,
	})

	n.dispatcher.Enqueue(worker.MailTask{
		To:       email,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	return nil
}
