package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/xiebiao/inventory-reservation/internal/application/inventory"
	"github.com/xiebiao/inventory-reservation/internal/domain/inventory"
	"github.com/xiebiao/inventory-reservation/internal/interface/http/dto"
	apperrors "github.com/xiebiao/inventory-reservation/pkg/errors"
	"github.com/xiebiao/inventory-reservation/pkg/response"
)

// ReservationHandler 预留单HTTP处理器
type ReservationHandler struct {
	engine *appinventory.Engine
}

// NewReservationHandler 创建预留单处理器
func NewReservationHandler(engine *appinventory.Engine) *ReservationHandler {
	return &ReservationHandler{engine: engine}
}

// bindError 参数绑定失败统一返回40900
func bindError(c *gin.Context, err error) {
	response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: "+err.Error())
}

// Reserve 预留库存
// @Summary      预留库存
// @Description  从可售数量中占用指定数量，到期未确认自动释放
// @Tags         预留
// @Accept       json
// @Produce      json
// @Param        request body dto.ReserveRequest true "预留信息"
// @Success      200 {object} response.Response{data=dto.ReservationResponse} "预留成功"
// @Failure      200 {object} response.Response "40001库存不足（data含sku/requested/available）、40011库存项未启用、40012过期时间非法"
// @Router       /reservations [post]
//
// 同一SKU的并发预留通过乐观锁串行化，不会出现超卖：
// 可售10件时两个请求各预留10件，只有一个成功，另一个返回库存不足。
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	r, err := h.engine.Reserve(c.Request.Context(), appinventory.ReserveRequest{
		SKU:        req.SKU,
		Quantity:   req.Quantity,
		OrderID:    req.OrderID,
		CustomerID: req.CustomerID,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.NewReservationResponse(r))
}

// Confirm 确认预留
// @Summary      确认预留
// @Description  发货时确认，已预留数量永久离开库存；已过期的预留不能确认
// @Tags         预留
// @Produce      json
// @Param        id path string true "预留单ID"
// @Success      200 {object} response.Response{data=dto.ReservationResponse}
// @Failure      200 {object} response.Response "40010状态不允许、40406预留单不存在"
// @Router       /reservations/{id}/confirm [post]
func (h *ReservationHandler) Confirm(c *gin.Context) {
	r, err := h.engine.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewReservationResponse(r))
}

// Cancel 取消预留
// @Summary      取消预留
// @Description  已预留数量回到可售；已到期但尚未被清理的预留也可以取消
// @Tags         预留
// @Accept       json
// @Produce      json
// @Param        id path string true "预留单ID"
// @Param        request body dto.CancelRequest false "取消原因"
// @Success      200 {object} response.Response{data=dto.ReservationResponse}
// @Failure      200 {object} response.Response "40010状态不允许、40406预留单不存在"
// @Router       /reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	var req dto.CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	r, err := h.engine.Cancel(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewReservationResponse(r))
}

// Get 查询预留单
// @Summary      查询预留单
// @Tags         预留
// @Produce      json
// @Param        id path string true "预留单ID"
// @Success      200 {object} response.Response{data=dto.ReservationResponse}
// @Failure      200 {object} response.Response "40406预留单不存在"
// @Router       /reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	r, err := h.engine.GetReservation(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewReservationResponse(r))
}

// List 按订单或客户查询预留单
// @Summary      查询预留单列表
// @Description  order_id和customer_id二选一，同时传时按order_id查询
// @Tags         预留
// @Produce      json
// @Param        order_id query string false "订单ID"
// @Param        customer_id query string false "客户ID"
// @Success      200 {object} response.Response{data=[]dto.ReservationResponse}
// @Router       /reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	var req dto.ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	var (
		list []*inventory.Reservation
		err  error
	)
	switch {
	case req.OrderID != "":
		list, err = h.engine.ListReservationsByOrder(c.Request.Context(), req.OrderID)
	case req.CustomerID != "":
		list, err = h.engine.ListReservationsByCustomer(c.Request.Context(), req.CustomerID)
	default:
		response.ErrorWithCode(c, apperrors.ErrCodeInvalidParams, "参数错误: order_id和customer_id至少传一个")
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.NewReservationList(list))
}
