package shipment

import (
	"fmt"
	"strconv"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/service"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ShipmentHandler struct {
	shipmentService *service.ShipmentService
}

func NewShipmentHandler(shipmentService *service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService}
}

func staffActor(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	return fmt.Sprintf("staff:%d", userID)
}

func (h *ShipmentHandler) CreateShipment(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	var input struct {
		Carrier        string                 `json:"carrier"`
		TrackingNumber string                 `json:"tracking_number"`
		Items          []service.ShipmentLine `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	shipment, err := h.shipmentService.CreateShipment(orderID, input.Items, input.Carrier, input.TrackingNumber, staffActor(c))
	if err != nil {
		util.Logger.Error("创建发货单失败",
			zap.Error(err),
			zap.Int("order_id", orderID))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, shipment, "发货单创建成功")
}

func (h *ShipmentHandler) UpdateShipment(c *gin.Context) {
	shipmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid shipment ID"))
		return
	}

	var input service.UpdateShipmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	shipment, err := h.shipmentService.UpdateShipment(shipmentID, input, staffActor(c))
	if err != nil {
		util.Logger.Error("更新发货单失败",
			zap.Error(err),
			zap.Int("shipment_id", shipmentID))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, shipment, "发货单已更新")
}

func (h *ShipmentHandler) GetShipment(c *gin.Context) {
	shipmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid shipment ID"))
		return
	}

	shipment, err := h.shipmentService.GetShipmentByID(shipmentID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, shipment, "")
}

func (h *ShipmentHandler) ListShipmentsByOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	shipments, err := h.shipmentService.GetShipmentsByOrder(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, shipments, "")
}
