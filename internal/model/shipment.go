package model

import "time"

// 发货单状态枚举
const (
	ShipmentStatusPending   = "pending"
	ShipmentStatusPacked    = "packed"
	ShipmentStatusShipped   = "shipped"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusReturned  = "returned"
)

var validShipmentStatuses = map[string]bool{
	ShipmentStatusPending:   true,
	ShipmentStatusPacked:    true,
	ShipmentStatusShipped:   true,
	ShipmentStatusDelivered: true,
	ShipmentStatusReturned:  true,
}

// IsValidShipmentStatus 判断是否为合法的发货单状态
func IsValidShipmentStatus(status string) bool {
	return validShipmentStatuses[status]
}

// Shipment 发货单模型，一个订单可以分多批发货
type Shipment struct {
	ID             int             `json:"id"`
	OrderID        int             `json:"order_id"`
	Carrier        string          `json:"carrier,omitempty"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	Status         string          `json:"status"`
	ShippedAt      *time.Time      `json:"shipped_at"`
	DeliveredAt    *time.Time      `json:"delivered_at"`
	Items          []*ShipmentItem `json:"items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ShipmentItem 发货明细，数量可以小于订单明细数量（部分发货）
type ShipmentItem struct {
	ID          int `json:"id"`
	ShipmentID  int `json:"shipment_id"`
	OrderItemID int `json:"order_item_id"`
	Quantity    int `json:"quantity"`
}
