package service

import (
	"fmt"
	"time"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/repository/interfaces"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

// ShipmentService 负责发货单，一个订单可以分多批发货
type ShipmentService struct {
	shipmentRepo interfaces.ShipmentRepository
	orderRepo    interfaces.OrderRepository
	paymentRepo  interfaces.PaymentRepository
}

func NewShipmentService(
	shipmentRepo interfaces.ShipmentRepository,
	orderRepo interfaces.OrderRepository,
	paymentRepo interfaces.PaymentRepository,
) *ShipmentService {
	return &ShipmentService{
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
	}
}

// ShipmentLine 发货明细输入，数量可以小于订单明细数量
type ShipmentLine struct {
	OrderItemID int `json:"order_item_id" binding:"required"`
	Quantity    int `json:"quantity" binding:"required,gt=0"`
}

// UpdateShipmentInput 发货单更新输入，nil 字段不变
type UpdateShipmentInput struct {
	Carrier        *string `json:"carrier"`
	TrackingNumber *string `json:"tracking_number"`
	Status         *string `json:"status"`
}

// CreateShipment 创建发货单
// 前置条件：订单已有验证成功的支付；创建时订单转 processing
func (s *ShipmentService) CreateShipment(orderID int, lines []ShipmentLine, carrier, trackingNumber, actor string) (*model.Shipment, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}

	payment, err := s.paymentRepo.GetPaymentByOrderID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil || payment.Status != model.PaymentStatusSuccess {
		return nil, errors.New(errors.ErrOrderNotPaid, "order has no successful payment")
	}

	var items []*model.ShipmentItem
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.New(errors.ErrValidation, "quantity must be a positive integer")
		}

		item, err := s.orderRepo.GetOrderItemByID(line.OrderItemID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to get order item", err)
		}
		if item == nil || item.OrderID != orderID {
			return nil, errors.New(errors.ErrNotFound,
				fmt.Sprintf("order item %d not found on order %d", line.OrderItemID, orderID))
		}

		items = append(items, &model.ShipmentItem{
			OrderItemID: line.OrderItemID,
			Quantity:    line.Quantity,
		})
	}

	shipment := &model.Shipment{
		OrderID:        orderID,
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
		Status:         model.ShipmentStatusPending,
		Items:          items,
	}

	previousStatus := order.Status
	orderChange := &model.StatusChange{
		OrderID:    orderID,
		FromStatus: &previousStatus,
		ToStatus:   model.OrderStatusProcessing,
		Reason:     "shipment created",
		Actor:      actor,
	}

	if err := s.shipmentRepo.CreateShipment(shipment, orderChange); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create shipment", err)
	}

	util.Logger.Info("发货单已创建",
		zap.Int("shipment_id", shipment.ID),
		zap.Int("order_id", orderID),
		zap.Int("item_count", len(items)))
	return shipment, nil
}

// UpdateShipment 更新发货单
//
// 状态联动：转 shipped 时盖发货时间戳，订单未到 shipped/delivered 则转
// shipped；转 delivered 时盖送达时间戳，任意一批送达即把订单转 delivered
func (s *ShipmentService) UpdateShipment(shipmentID int, input UpdateShipmentInput, actor string) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.GetShipmentByID(shipmentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get shipment", err)
	}
	if shipment == nil {
		return nil, errors.New(errors.ErrNotFound, "shipment not found")
	}

	if input.Carrier != nil {
		shipment.Carrier = *input.Carrier
	}
	if input.TrackingNumber != nil {
		shipment.TrackingNumber = *input.TrackingNumber
	}

	var orderChange *model.StatusChange
	if input.Status != nil {
		newStatus := *input.Status
		if !model.IsValidShipmentStatus(newStatus) {
			return nil, errors.New(errors.ErrInvalidStatus,
				fmt.Sprintf("invalid shipment status: %s", newStatus))
		}
		shipment.Status = newStatus

		now := time.Now()
		switch newStatus {
		case model.ShipmentStatusShipped:
			if shipment.ShippedAt == nil {
				shipment.ShippedAt = &now
			}
		case model.ShipmentStatusDelivered:
			if shipment.DeliveredAt == nil {
				shipment.DeliveredAt = &now
			}
		}

		order, err := s.orderRepo.GetOrderByID(shipment.OrderID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
		}
		if order == nil {
			return nil, errors.New(errors.ErrNotFound, "order not found")
		}

		switch newStatus {
		case model.ShipmentStatusShipped:
			// 订单已经 shipped 或 delivered 就不回退
			if order.Status != model.OrderStatusShipped && order.Status != model.OrderStatusDelivered {
				previousStatus := order.Status
				orderChange = &model.StatusChange{
					OrderID:    shipment.OrderID,
					FromStatus: &previousStatus,
					ToStatus:   model.OrderStatusShipped,
					Reason:     fmt.Sprintf("shipment %d shipped", shipmentID),
					Actor:      actor,
				}
			}
		case model.ShipmentStatusDelivered:
			// 任意一批送达即视为订单送达
			if order.Status != model.OrderStatusDelivered {
				previousStatus := order.Status
				orderChange = &model.StatusChange{
					OrderID:    shipment.OrderID,
					FromStatus: &previousStatus,
					ToStatus:   model.OrderStatusDelivered,
					Reason:     fmt.Sprintf("shipment %d delivered", shipmentID),
					Actor:      actor,
				}
			}
		}
	}

	if err := s.shipmentRepo.UpdateShipment(shipment, orderChange); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to update shipment", err)
	}

	util.Logger.Info("发货单已更新",
		zap.Int("shipment_id", shipmentID),
		zap.String("status", shipment.Status))
	return shipment, nil
}

func (s *ShipmentService) GetShipmentByID(shipmentID int) (*model.Shipment, error) {
	shipment, err := s.shipmentRepo.GetShipmentByID(shipmentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get shipment", err)
	}
	if shipment == nil {
		return nil, errors.New(errors.ErrNotFound, "shipment not found")
	}
	return shipment, nil
}

func (s *ShipmentService) GetShipmentsByOrder(orderID int) ([]*model.Shipment, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}

	shipments, err := s.shipmentRepo.GetShipmentsByOrder(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list shipments", err)
	}
	return shipments, nil
}
