package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/dto"
	"github.com/xiebiao/inventory-reservation/pkg/response"
)

// OrderHandler 整单预留HTTP处理器
type OrderHandler struct {
	engine *appinventory.Engine
}

// NewOrderHandler 创建整单处理器
func NewOrderHandler(engine *appinventory.Engine) *OrderHandler {
	return &OrderHandler{engine: engine}
}

// ReserveOrder 整单预留
// @Summary      整单预留
// @Description  订单中每个SKU各预留一次，任一SKU失败时取消已成功的预留，整单不占用库存
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        order_id path string true "订单ID"
// @Param        request body dto.ReserveOrderRequest true "订单明细"
// @Success      200 {object} response.Response{data=dto.OrderReservationsResponse} "预留成功"
// @Failure      200 {object} response.Response "40001库存不足"
// @Router       /orders/{order_id}/reservations [post]
//
// 不同SKU之间没有全局事务，用saga补偿：
// 1. 按行依次预留
// 2. 第N行失败时逆序取消前N-1行（原因为 order reservation rolled back）
// 3. 补偿失败的预留单会在到期后被清理任务释放
func (h *OrderHandler) ReserveOrder(c *gin.Context) {
	var req dto.ReserveOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	lines := make([]appinventory.OrderLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = appinventory.OrderLine{SKU: line.SKU, Quantity: line.Quantity}
	}

	orderID := c.Param("order_id")
	list, err := h.engine.ReserveOrder(c.Request.Context(), appinventory.ReserveOrderRequest{
		OrderID:    orderID,
		CustomerID: req.CustomerID,
		Lines:      lines,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, &dto.OrderReservationsResponse{
		OrderID:      orderID,
		Reservations: dto.NewReservationList(list),
	})
}

// ConfirmOrder 确认整单
// @Summary      确认整单
// @Description  确认订单下所有ACTIVE预留，已终态的跳过
// @Tags         订单
// @Produce      json
// @Param        order_id path string true "订单ID"
// @Success      200 {object} response.Response{data=dto.OrderReservationsResponse}
// @Failure      200 {object} response.Response "40406订单没有预留单"
// @Router       /orders/{order_id}/confirm [post]
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	orderID := c.Param("order_id")
	list, err := h.engine.ConfirmOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.OrderReservationsResponse{
		OrderID:      orderID,
		Reservations: dto.NewReservationList(list),
	})
}

// CancelOrder 取消整单
// @Summary      取消整单
// @Description  取消订单下所有ACTIVE预留，已终态的跳过
// @Tags         订单
// @Accept       json
// @Produce      json
// @Param        order_id path string true "订单ID"
// @Param        request body dto.CancelRequest false "取消原因"
// @Success      200 {object} response.Response{data=dto.OrderReservationsResponse}
// @Failure      200 {object} response.Response "40406订单没有预留单"
// @Router       /orders/{order_id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req dto.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	orderID := c.Param("order_id")
	list, err := h.engine.CancelOrder(c.Request.Context(), orderID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.OrderReservationsResponse{
		OrderID:      orderID,
		Reservations: dto.NewReservationList(list),
	})
}
