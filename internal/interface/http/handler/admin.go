package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/dto"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
	"github.com/xiebiao/inventory-reservation/pkg/response"
)

// Sweeper 手动触发一次过期清理（*reaper.Reaper）
type Sweeper interface {
	RunOnce(ctx context.Context) (appinventory.SweepResult, error)
}

// AdminHandler 库存运营接口：入库、盘点、损耗、退货、调拨、在途、手动清理
type AdminHandler struct {
	engine  *appinventory.Engine
	sweeper Sweeper
}

// NewAdminHandler 创建运营处理器
func NewAdminHandler(engine *appinventory.Engine, sweeper Sweeper) *AdminHandler {
	return &AdminHandler{engine: engine, sweeper: sweeper}
}

// Inbound 采购入库
// @Summary      采购入库
// @Description  可售增加，在途最多减少同样数量；unit_cost可选，total_cost = unit_cost × quantity
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.InboundRequest true "入库信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /admin/inbound [post]
func (h *AdminHandler) Inbound(c *gin.Context) {
	var req dto.InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	unitCost, err := req.ParseUnitCost()
	if err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: unit_cost格式不正确")
		return
	}

	item, err := h.engine.RecordInbound(c.Request.Context(), inventory.InboundParams{
		SKU:             req.SKU,
		Quantity:        req.Quantity,
		SupplierID:      req.SupplierID,
		ReferenceNumber: req.ReferenceNumber,
		UnitCost:        unitCost,
		PerformedBy:     req.PerformedBy,
		Notes:           req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Adjust 盘点调整
// @Summary      盘点调整
// @Description  调整后可售不能为负
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.AdjustmentRequest true "调整信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /admin/adjustments [post]
func (h *AdminHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.RecordAdjustment(c.Request.Context(), appinventory.AdjustmentRequest{
		SKU:         req.SKU,
		Delta:       req.Delta,
		Reason:      req.Reason,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Damage 损坏或丢失
// @Summary      记录损坏或丢失
// @Description  只能扣减可售数量，已预留的货不受影响
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.DamageRequest true "损耗信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /admin/damage [post]
func (h *AdminHandler) Damage(c *gin.Context) {
	var req dto.DamageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.RecordDamageOrTheft(c.Request.Context(), appinventory.ShrinkageRequest{
		SKU:         req.SKU,
		Quantity:    req.Quantity,
		Kind:        inventory.MovementType(req.Kind),
		Reason:      req.Reason,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Return 客户退货
// @Summary      客户退货
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.ReturnRequest true "退货信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /admin/returns [post]
func (h *AdminHandler) Return(c *gin.Context) {
	var req dto.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.RecordReturn(c.Request.Context(), appinventory.ReturnRequest{
		SKU:         req.SKU,
		Quantity:    req.Quantity,
		OrderID:     req.OrderID,
		Reason:      req.Reason,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Transfer 调拨
// @Summary      调拨
// @Description  同一商品的两个库存项之间调拨，一个事务内完成
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.TransferRequest true "调拨信息"
// @Success      200 {object} response.Response{data=dto.TransferResponse}
// @Failure      200 {object} response.Response "40014调拨非法"
// @Router       /admin/transfers [post]
func (h *AdminHandler) Transfer(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	from, to, err := h.engine.TransferStock(c.Request.Context(), appinventory.TransferRequest{
		FromSKU:     req.FromSKU,
		ToSKU:       req.ToSKU,
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		PerformedBy: req.PerformedBy,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.TransferResponse{
		From: dto.NewItemResponse(from),
		To:   dto.NewItemResponse(to),
	})
}

// Incoming 登记在途
// @Summary      登记在途数量
// @Tags         库存运营
// @Accept       json
// @Produce      json
// @Param        request body dto.IncomingRequest true "在途信息"
// @Success      200 {object} response.Response{data=dto.ItemResponse}
// @Router       /admin/incoming [post]
func (h *AdminHandler) Incoming(c *gin.Context) {
	var req dto.IncomingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	item, err := h.engine.ExpectIncoming(c.Request.Context(), req.SKU, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewItemResponse(item))
}

// Sweep 手动过期清理
// @Summary      手动过期清理
// @Description  与定时清理任务共享同一轮执行；单条失败计入failed，只有查询或加锁失败才返回错误
// @Tags         库存运营
// @Produce      json
// @Success      200 {object} response.Response{data=dto.SweepResponse}
// @Router       /admin/sweep [post]
func (h *AdminHandler) Sweep(c *gin.Context) {
	result, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.SweepResponse{Processed: result.Processed, Failed: result.Failed})
}
