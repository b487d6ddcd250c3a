package service

import (
	"errors"
	"math"

	"experience_booking/internal/domain/experience/model"
	"experience_booking/internal/domain/experience/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 体验模块业务错误
var ErrPackageNotFound = errors.New("experience not found")

// Pagination 列表分页信息
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"` // 总页数
}

// CreatePackageInput 管理端创建套餐输入（图片 URL 在 Handler 上传后传入）
type CreatePackageInput struct {
	Title                 string
	Description           string
	Price                 decimal.Decimal
	Location              string
	Duration              int
	AvailableSlots        int
	Itinerary             string
	Inclusions            string
	Exclusions            string
	PreferedPaymentMethod []string
	ThumbnailImages       []string
}

// PackageService 体验服务接口
type PackageService interface {
	GetPackages(page, limit int) ([]model.Package, *Pagination, error)
	GetPackage(id string) (*model.Package, error)
	CreatePackage(input CreatePackageInput) (*model.Package, error)
	DeletePackage(id string) error

	FavouritePackage(userID, packageID string) ([]model.Package, error)
	UnfavouritePackage(userID, packageID string) ([]model.Package, error)
	GetFavourites(userID string) ([]model.Package, error)
}

// packageService 实现
type packageService struct {
	repo repository.PackageRepository
}

// NewPackageService 创建体验服务
func NewPackageService(repo repository.PackageRepository) PackageService {
	return &packageService{repo: repo}
}

// GetPackages 分页获取套餐列表
func (s *packageService) GetPackages(page, limit int) ([]model.Package, *Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 8
	}
	offset := (page - 1) * limit

	packages, count, err := s.repo.GetList(offset, limit)
	if err != nil {
		return nil, nil, err
	}

	return packages, &Pagination{
		Page:  page,
		Limit: limit,
		Total: int64(math.Ceil(float64(count) / float64(limit))),
	}, nil
}

// GetPackage 获取单个套餐
func (s *packageService) GetPackage(id string) (*model.Package, error) {
	pkg, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPackageNotFound
		}
		return nil, err
	}
	return pkg, nil
}

// CreatePackage 创建套餐
func (s *packageService) CreatePackage(input CreatePackageInput) (*model.Package, error) {
	pkg := &model.Package{
		Title:                 input.Title,
		Description:           input.Description,
		Price:                 input.Price,
		Location:              input.Location,
		Duration:              input.Duration,
		AvailableSlots:        input.AvailableSlots,
		Itinerary:             input.Itinerary,
		Inclusions:            input.Inclusions,
		Exclusions:            input.Exclusions,
		PreferedPaymentMethod: input.PreferedPaymentMethod,
		ThumbnailImages:       input.ThumbnailImages,
	}
	if err := s.repo.Create(pkg); err != nil {
		return nil, err
	}
	return pkg, nil
}

// DeletePackage 删除套餐
func (s *packageService) DeletePackage(id string) error {
	return s.repo.Delete(id)
}

// FavouritePackage 收藏套餐，返回最新收藏列表
func (s *packageService) FavouritePackage(userID, packageID string) ([]model.Package, error) {
	if _, err := s.GetPackage(packageID); err != nil {
		return nil, err
	}
	if err := s.repo.AddFavourite(userID, packageID); err != nil {
		return nil, err
	}
	return s.repo.GetFavourites(userID)
}

// UnfavouritePackage 取消收藏，返回最新收藏列表
func (s *packageService) UnfavouritePackage(userID, packageID string) ([]model.Package, error) {
	if err := s.repo.RemoveFavourite(userID, packageID); err != nil {
		return nil, err
	}
	return s.repo.GetFavourites(userID)
}

// GetFavourites 获取收藏列表
func (s *packageService) GetFavourites(userID string) ([]model.Package, error) {
	return s.repo.GetFavourites(userID)
}
