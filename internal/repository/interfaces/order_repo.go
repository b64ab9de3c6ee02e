package interfaces

import "github.com/D3stinn3/HC/internal/model"

type OrderRepository interface {
	// CreateOrder 在同一事务内写入订单、明细、缓存总额和创建历史
	CreateOrder(order *model.Order, items []*model.OrderItem) error
	GetOrderByID(id int) (*model.Order, error)
	GetAllOrders() ([]*model.Order, error)
	GetOrdersByUser(userID int) ([]*model.Order, error)
	// ApplyStatusChange 在同一事务内更新订单状态并追加一条历史记录
	ApplyStatusChange(change *model.StatusChange) error
	GetStatusHistory(orderID int) ([]*model.OrderStatusHistory, error)
	AddOrderItem(item *model.OrderItem) error
	UpdateOrderItemQuantity(itemID, quantity int) error
	RemoveOrderItem(itemID int) error
	GetOrderItemByID(itemID int) (*model.OrderItem, error)
	ComputeOrderTotal(orderID int) (float64, error)
	// DeleteOrder 级联删除明细与历史；支付、退款、发货记录保留
	DeleteOrder(orderID int) error
}
