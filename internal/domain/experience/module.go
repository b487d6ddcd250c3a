package experience

import (
	"experience_booking/internal/domain/experience/handler"
	"experience_booking/internal/domain/experience/repository"
	"experience_booking/internal/domain/experience/service"
	"experience_booking/internal/pkg/middleware"
	"experience_booking/internal/pkg/registry"

	"github.com/gin-gonic/gin"
)

// ExperienceModule 体验/套餐模块
type ExperienceModule struct{}

func init() {
	registry.Register(&ExperienceModule{})
}

func (m *ExperienceModule) Name() string {
	return "experience"
}

func (m *ExperienceModule) Priority() int {
	return 10
}

func (m *ExperienceModule) Init(ctx *registry.ModuleContext) error {
	// 1. 依赖注入
	pRepo := repository.NewPackageRepository(ctx.DB)
	pService := service.NewPackageService(pRepo)
	pHandler := handler.NewPackageHandler(pService, ctx.Uploader)

	// 2. 路由注册
	setupRoutes(ctx.Router, pHandler)

	return nil
}

func setupRoutes(r *gin.Engine, h *handler.PackageHandler) {
	g := r.Group("/experiences")
	{
		g.GET("/", h.GetPackages)
		g.GET("/:id", h.GetPackage)

		// 收藏需要登录
		authorized := g.Group("")
		authorized.Use(middleware.AuthMiddleware())
		{
			authorized.GET("/favourites", h.GetFavourites)
			authorized.POST("/:id/favourite", h.Favourite)
			authorized.DELETE("/:id/favourite", h.Unfavourite)
		}
	}

	// 管理端路由
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/experiences", h.CreateExperience)
		admin.DELETE("/experiences/:id", h.DeleteExperience)
	}
}
