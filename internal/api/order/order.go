package order

import (
	"fmt"
	"strconv"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/service"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService}
}

// actorFrom 组装状态历史里的操作者标识
func actorFrom(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if isStaff, _ := c.Get("is_staff"); isStaff == true {
		return fmt.Sprintf("staff:%d", userID)
	}
	return fmt.Sprintf("user:%d", userID)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input struct {
		ShippingAddress string              `json:"shipping_address" binding:"required"`
		BillingAddress  string              `json:"billing_address"`
		Items           []service.OrderLine `json:"items"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	userID, _ := c.Get("user_id")

	order, err := h.orderService.CreateOrder(userID.(int), input.ShippingAddress, input.BillingAddress, input.Items)
	if err != nil {
		util.Logger.Error("创建订单失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, order, "订单创建成功")
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	// 非员工只能看自己的订单
	if isStaff, _ := c.Get("is_staff"); isStaff != true {
		userID, _ := c.Get("user_id")
		if order.UserID != userID.(int) {
			errors.HandleError(c, errors.New(errors.ErrForbidden, "无权查看该订单"))
			return
		}
	}

	errors.HandleSuccess(c, order, "")
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.GetAllOrders()
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, orders, "")
}

func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, _ := c.Get("user_id")

	orders, err := h.orderService.GetOrdersByUser(userID.(int))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, orders, "")
}

func (h *OrderHandler) SetStatus(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	if err := h.orderService.SetStatus(orderID, input.Status, input.Reason, actorFrom(c)); err != nil {
		util.Logger.Error("更新订单状态失败",
			zap.Error(err),
			zap.Int("order_id", orderID),
			zap.String("status", input.Status))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"order_id": orderID, "status": input.Status}, "订单状态已更新")
}

func (h *OrderHandler) GetStatusHistory(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	history, err := h.orderService.GetStatusHistory(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, history, "")
}

// GetTotal 返回按明细实时计算的权威总额
func (h *OrderHandler) GetTotal(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	order, err := h.orderService.GetOrderByID(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{
		"order_id": orderID,
		"total":    h.orderService.GetTotal(order),
	}, "")
}

func (h *OrderHandler) AddItem(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	var input service.OrderLine
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	item, err := h.orderService.AddItem(orderID, input)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, item, "明细已添加")
}

func (h *OrderHandler) UpdateItemQuantity(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}
	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid item ID"))
		return
	}

	var input struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	if err := h.orderService.UpdateItemQuantity(orderID, itemID, input.Quantity); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"item_id": itemID, "quantity": input.Quantity}, "明细已更新")
}

func (h *OrderHandler) RemoveItem(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}
	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid item ID"))
		return
	}

	if err := h.orderService.RemoveItem(orderID, itemID); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "明细已删除")
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	if err := h.orderService.DeleteOrder(orderID); err != nil {
		util.Logger.Error("删除订单失败", zap.Error(err), zap.Int("order_id", orderID))
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "订单已删除")
}
