package model

import (
	experienceModel "experience_booking/internal/domain/experience/model"
	baseModel "experience_booking/pkg/model"
)

// 用户角色
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User 用户模型
type User struct {
	baseModel.BaseModel
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `json:"-"` // bcrypt 哈希，不返回给前端
	Role     string `gorm:"type:varchar(16);default:'user'" json:"role"`

	// 收藏的体验（多对多）
	Favourites []experienceModel.Package `gorm:"many2many:user_favourites;" json:"favourites,omitempty"`
}
