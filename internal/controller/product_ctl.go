package controller

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keremmican/zara-bot/internal/api/dto"
	"github.com/keremmican/zara-bot/internal/model"
	"github.com/keremmican/zara-bot/internal/service"
)

type ProductController struct {
	productService *service.ProductService
}

func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// ==================== Queries ====================

// GetProducts lists stored products page by page.
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	ctx := c.Request.Context()
	products, total, err := ctrl.productService.ListProducts(ctx, page, pageSize)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "query failed: " + err.Error()})
		return
	}

	respList := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		respList = append(respList, toProductResp(&products[i]))
	}

	c.JSON(200, dto.ProductListResp{
		Code:     0,
		Message:  "success",
		Data:     respList,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// SearchProducts returns every color variant of one product code.
func (ctrl *ProductController) SearchProducts(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(400, gin.H{"code": 400, "message": "code is required"})
		return
	}

	ctx := c.Request.Context()
	products, err := ctrl.productService.FindAllByCode(ctx, code)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "query failed: " + err.Error()})
		return
	}

	respList := make([]dto.ProductResp, 0, len(products))
	for i := range products {
		respList = append(respList, toProductResp(&products[i]))
	}

	c.JSON(200, gin.H{
		"code":    0,
		"message": "success",
		"data":    respList,
	})
}

func toProductResp(product *model.Product) dto.ProductResp {
	sizes := make([]dto.SizeResp, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		sizes = append(sizes, dto.SizeResp{
			ID:           size.ID,
			Name:         size.Name,
			Availability: string(size.Availability),
		})
	}

	return dto.ProductResp{
		ID:            product.ID,
		ProductCode:   product.ProductCode,
		Color:         product.Color,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price.StringFixed(2),
		FamilyName:    product.FamilyName,
		SubfamilyName: product.SubfamilyName,
		ImageURL:      product.ImageURL,
		ProductLink:   product.ProductLink,
		Sizes:         sizes,
	}
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
