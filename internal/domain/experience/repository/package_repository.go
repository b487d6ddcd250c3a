package repository

import (
	"experience_booking/internal/domain/experience/model"

	"gorm.io/gorm"
)

// PackageRepository 接口定义
type PackageRepository interface {
	Create(pkg *model.Package) error
	GetByID(id string) (*model.Package, error)
	GetList(offset, limit int) ([]model.Package, int64, error)
	Delete(id string) error

	AddFavourite(userID, packageID string) error
	RemoveFavourite(userID, packageID string) error
	GetFavourites(userID string) ([]model.Package, error)
}

// packageRepository 实现
type packageRepository struct {
	db *gorm.DB
}

// NewPackageRepository 创建新的仓库实例
func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepository{db: db}
}

// Create 创建套餐
func (r *packageRepository) Create(pkg *model.Package) error {
	return r.db.Create(pkg).Error
}

// GetByID 根据ID获取套餐（带评价）
func (r *packageRepository) GetByID(id string) (*model.Package, error) {
	var pkg model.Package
	if err := r.db.Preload("Reviews").Where("id = ?", id).First(&pkg).Error; err != nil {
		return nil, err
	}
	return &pkg, nil
}

// GetList 获取套餐列表（分页，带评价）
func (r *packageRepository) GetList(offset, limit int) ([]model.Package, int64, error) {
	var packages []model.Package
	var total int64

	if err := r.db.Model(&model.Package{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.Preload("Reviews").Offset(offset).Limit(limit).Find(&packages).Error; err != nil {
		return nil, 0, err
	}
	return packages, total, nil
}

// Delete 物理删除套餐
func (r *packageRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&model.Package{}).Error
}

// AddFavourite 收藏套餐（重复收藏静默忽略）
func (r *packageRepository) AddFavourite(userID, packageID string) error {
	return r.db.Exec(
		"INSERT INTO user_favourites (user_id, package_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		userID, packageID,
	).Error
}

// RemoveFavourite 取消收藏
func (r *packageRepository) RemoveFavourite(userID, packageID string) error {
	return r.db.Exec(
		"DELETE FROM user_favourites WHERE user_id = ? AND package_id = ?",
		userID, packageID,
	).Error
}

// GetFavourites 获取用户收藏的套餐
func (r *packageRepository) GetFavourites(userID string) ([]model.Package, error) {
	var packages []model.Package
	err := r.db.
		Joins("JOIN user_favourites uf ON uf.package_id = packages.id").
		Where("uf.user_id = ?", userID).
		Find(&packages).Error
	return packages, err
}
