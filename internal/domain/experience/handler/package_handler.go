package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"experience_booking/internal/domain/experience/service"
	"experience_booking/internal/pkg/uploader"
	"experience_booking/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PackageHandler 体验处理器
type PackageHandler struct {
	service  service.PackageService
	uploader uploader.Uploader
}

// NewPackageHandler 创建处理器
func NewPackageHandler(service service.PackageService, up uploader.Uploader) *PackageHandler {
	return &PackageHandler{service: service, uploader: up}
}

// GetPackages 分页获取体验列表
func (h *PackageHandler) GetPackages(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "8"))

	packages, pagination, err := h.service.GetPackages(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	response.Success(c, gin.H{
		"experiences": packages,
		"pagination":  pagination,
	})
}

// GetPackage 获取单个体验
func (h *PackageHandler) GetPackage(c *gin.Context) {
	pkg, err := h.service.GetPackage(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPackageNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrPackageNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	response.Success(c, gin.H{"package": pkg})
}

// Favourite 收藏体验
func (h *PackageHandler) Favourite(c *gin.Context) {
	userID := c.GetString("userID")
	favourites, err := h.service.FavouritePackage(userID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPackageNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrPackageNotFound, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}
	response.Success(c, gin.H{"favourites": favourites})
}

// Unfavourite 取消收藏
func (h *PackageHandler) Unfavourite(c *gin.Context) {
	userID := c.GetString("userID")
	favourites, err := h.service.UnfavouritePackage(userID, c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}
	response.Success(c, gin.H{"favourites": favourites})
}

// GetFavourites 获取收藏列表
func (h *PackageHandler) GetFavourites(c *gin.Context) {
	userID := c.GetString("userID")
	favourites, err := h.service.GetFavourites(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}
	response.Success(c, gin.H{"favourites": favourites})
}

// CreateExperience 管理端创建体验（multipart：字段 + images 文件）
func (h *PackageHandler) CreateExperience(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid form data")
		return
	}

	files := form.File["images"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.ErrImageRequired, "At least one image is required")
		return
	}

	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil || price.IsNegative() {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid price")
		return
	}
	duration, err := strconv.Atoi(c.DefaultPostForm("duration", "1"))
	if err != nil || duration < 1 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid duration")
		return
	}
	slots, err := strconv.Atoi(c.DefaultPostForm("availableSlots", "0"))
	if err != nil || slots < 0 {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid availableSlots")
		return
	}

	imageURLs, err := h.uploadImages(files)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Upload failed: "+err.Error())
		return
	}

	pkg, err := h.service.CreatePackage(service.CreatePackageInput{
		Title:                 c.PostForm("title"),
		Description:           c.PostForm("description"),
		Price:                 price,
		Location:              c.PostForm("location"),
		Duration:              duration,
		AvailableSlots:        slots,
		Itinerary:             c.PostForm("itinerary"),
		Inclusions:            c.PostForm("inclusions"),
		Exclusions:            c.PostForm("exclusions"),
		PreferedPaymentMethod: form.Value["preferedPaymentMethod"],
		ThumbnailImages:       imageURLs,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}

	response.Created(c, "Experience created", gin.H{"id": pkg.ID, "imageUrls": imageURLs})
}

// DeleteExperience 管理端删除体验
func (h *PackageHandler) DeleteExperience(c *gin.Context) {
	if err := h.service.DeletePackage(c.Param("id")); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal Server Error")
		return
	}
	response.Success(c, nil)
}

// uploadImages 并发上传缩略图，保持结果顺序与上传顺序一致
func (h *PackageHandler) uploadImages(files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, len(files))

	var wg sync.WaitGroup
	var errOnce sync.Once
	var uploadErr error

	// 限制并发数为 5，避免过多协程
	sem := make(chan struct{}, 5)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f *multipart.FileHeader) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if uploadErr != nil {
				return
			}

			url, err := h.uploader.UploadFile(f)
			if err != nil {
				errOnce.Do(func() {
					uploadErr = err
				})
				return
			}

			// 按索引赋值，保证顺序
			urls[index] = url
		}(i, file)
	}

	wg.Wait()

	if uploadErr != nil {
		return nil, uploadErr
	}
	return urls, nil
}
