package controllers

import (
	"net/http"

	"github.com/address-cleaner/app/requests"
	"github.com/address-cleaner/app/responses"
	"github.com/address-cleaner/app/services"
	"github.com/address-cleaner/internal/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogController tra cứu catalog hành chính
type CatalogController struct {
	catalog      *catalog.Catalog
	adminService *services.AdminService
	logger       *zap.Logger
}

// NewCatalogController tạo mới CatalogController
func NewCatalogController(cat *catalog.Catalog, adminService *services.AdminService, logger *zap.Logger) *CatalogController {
	return &CatalogController{
		catalog:      cat,
		adminService: adminService,
		logger:       logger,
	}
}

// ListProvinces danh sách tỉnh theo thứ tự catalog
func (cc *CatalogController) ListProvinces(c *gin.Context) {
	c.JSON(http.StatusOK, responses.ProvincesResponse{
		CatalogVersion: cc.catalog.Version(),
		Provinces:      cc.catalog.Provinces(),
	})
}

// ListDistricts danh sách quận/huyện của một tỉnh (tên chính xác như trong catalog)
func (cc *CatalogController) ListDistricts(c *gin.Context) {
	province := c.Param("province")
	if !cc.catalog.HasProvince(province) {
		c.JSON(http.StatusNotFound, responses.NewError("PROVINCE_NOT_FOUND", "Không tìm thấy tỉnh: "+province, nil))
		return
	}

	c.JSON(http.StatusOK, responses.DistrictsResponse{
		Province:  province,
		Districts: cc.catalog.Districts(province),
	})
}

// Search tìm kiếm gần đúng qua Meilisearch
func (cc *CatalogController) Search(c *gin.Context) {
	var query requests.CatalogSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, responses.NewError("INVALID_REQUEST", "Query không hợp lệ: "+err.Error(), nil))
		return
	}

	hits, err := cc.adminService.SearchCatalog(c.Request.Context(), query.Q, query.Level, query.Parent, query.Limit)
	if unavailable(c, err) {
		return
	}
	if err != nil {
		cc.logger.Error("Lỗi tìm kiếm catalog", zap.Error(err))
		c.JSON(http.StatusBadGateway, responses.NewError("SEARCH_ERROR", "Lỗi tìm kiếm: "+err.Error(), nil))
		return
	}

	c.JSON(http.StatusOK, responses.CatalogSearchResponse{Query: query.Q, Hits: hits})
}
