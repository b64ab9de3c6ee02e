package interfaces

import "github.com/D3stinn3/HC/internal/model"

type ShipmentRepository interface {
	// CreateShipment 在同一事务内写入发货单、发货明细，并应用订单状态变更
	CreateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error
	GetShipmentByID(id int) (*model.Shipment, error)
	GetShipmentsByOrder(orderID int) ([]*model.Shipment, error)
	// UpdateShipment 在同一事务内更新发货单字段，并按需应用订单状态变更
	UpdateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error
}
