package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/dto"
	"github.com/xiebiao/inventory-reservation/pkg/response"
)

// ItemHandler 库存项HTTP处理器
type ItemHandler struct {
	engine *appinventory.Engine
}

// NewItemHandler 创建库存项处理器
func NewItemHandler(engine *appinventory.Engine) *ItemHandler {
	return &ItemHandler{engine: engine}
}

// Create 上架库存项
// @Summary      上架库存项
// @Description  首次在某仓库上架某SKU，初始数量记一条INBOUND流水
// @Tags         库存项
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateItemRequest true "库存项信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Failure      200 {object} response.Response "40009 SKU已存在、40013阈值非法"
// @Router       /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.CreateItem(c.Request.Context(), appinventory.CreateItemRequest{
		ProductID:       req.ProductID,
		SKU:             req.SKU,
		WarehouseID:     req.WarehouseID,
		InitialQuantity: req.InitialQuantity,
		Thresholds:      req.Thresholds.ToDomain(),
		PerformedBy:     req.PerformedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Get 查询库存项
// @Summary      查询库存项
// @Tags         库存项
// @Produce      json
// @Param        sku path string true "SKU"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Failure      200 {object} response.Response "40405库存项不存在"
// @Router       /items/{sku} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.engine.GetItem(c.Request.Context(), c.Param("sku"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// List 库存项列表
// @Summary      库存项列表
// @Tags         库存项
// @Produce      json
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.ItemResponse}}
// @Router       /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	params := req.ToDomain()
	items, total, err := h.engine.ListItems(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewItemList(items), total, params.Page, params.PageSize)
}

// ListLowStock 低库存列表
// @Summary      低库存列表
// @Description  可售数量 <= 补货点的ACTIVE库存项
// @Tags         库存项
// @Produce      json
// @Param        limit query int false "最多返回条数" default(100)
// @Success      200 {object} response.Response{data=[]dto.ItemResponse}
// @Router       /items/low-stock [get]
func (h *ItemHandler) ListLowStock(c *gin.Context) {
	var req dto.LowStockRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.engine.ListLowStock(c.Request.Context(), req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemList(items))
}

// UpdateThresholds 修改补货阈值
// @Summary      修改补货阈值
// @Tags         库存项
// @Accept       json
// @Produce      json
// @Param        sku path string true "SKU"
// @Param        request body dto.ThresholdsInput true "阈值"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Failure      200 {object} response.Response "40013阈值非法"
// @Router       /items/{sku}/thresholds [put]
func (h *ItemHandler) UpdateThresholds(c *gin.Context) {
	var req dto.ThresholdsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.UpdateThresholds(c.Request.Context(), c.Param("sku"), req.ToDomain())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// UpdateStatus 启用/暂停/停产
// @Summary      修改库存项状态
// @Description  非ACTIVE的库存项不接受新预留，已有预留不受影响
// @Tags         库存项
// @Accept       json
// @Produce      json
// @Param        sku path string true "SKU"
// @Param        request body dto.UpdateStatusRequest true "状态"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /items/{sku}/status [put]
func (h *ItemHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.SetStatus(c.Request.Context(), c.Param("sku"), inventory.ItemStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// ListMovements 库存流水
// @Summary      库存流水
// @Description  最新的在前
// @Tags         库存项
// @Produce      json
// @Param        sku path string true "SKU"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页数量" default(20)
// @Success      200 {object} response.Response{data=response.PageData{list=[]dto.MovementResponse}}
// @Router       /items/{sku}/movements [get]
func (h *ItemHandler) ListMovements(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	params := req.ToDomain()
	list, total, err := h.engine.ListMovements(c.Request.Context(), c.Param("sku"), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithPage(c, dto.NewMovementList(list), total, params.Page, params.PageSize)
}
