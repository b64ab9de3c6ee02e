package model

import "time"

// 订单状态枚举
const (
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

var validOrderStatuses = map[string]bool{
	OrderStatusPending:    true,
	OrderStatusPaid:       true,
	OrderStatusProcessing: true,
	OrderStatusShipped:    true,
	OrderStatusDelivered:  true,
	OrderStatusCancelled:  true,
	OrderStatusRefunded:   true,
}

// IsValidOrderStatus 判断是否为合法的订单状态
// 注意：只校验枚举成员，不限制状态之间的跳转（见 DESIGN.md）
func IsValidOrderStatus(status string) bool {
	return validOrderStatuses[status]
}

// Order 订单模型
// 收货地址和账单地址在结算时快照为文本，之后不再从地址表派生
type Order struct {
	ID              int          `json:"id"`
	UserID          int          `json:"user_id"`
	TotalAmount     *float64     `json:"total_amount"` // 缓存值，权威值为明细合计
	Status          string       `json:"status"`
	OrderDate       time.Time    `json:"order_date"`
	OrderTime       string       `json:"order_time"`
	ShippingAddress string       `json:"shipping_address"`
	BillingAddress  string       `json:"billing_address"`
	Items           []*OrderItem `json:"items,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// OrderItem 订单明细模型
// Price 为加入时的快照，之后不随商品价格变动
type OrderItem struct {
	ID            int       `json:"id"`
	OrderID       int       `json:"order_id"`
	ProductID     int       `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Quantity      int       `json:"quantity"`
	Price         float64   `json:"price"`
	WeightVariant string    `json:"weight_variant,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Total 返回明细小计
func (i *OrderItem) Total() float64 {
	return float64(i.Quantity) * i.Price
}

// OrderStatusHistory 订单状态历史，只追加不修改
// FromStatus 仅在创建事件中为空
type OrderStatusHistory struct {
	ID         int       `json:"id"`
	OrderID    int       `json:"order_id"`
	FromStatus *string   `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StatusChange 描述一次待应用的订单状态变更
// 仓库层在同一事务内更新订单状态并追加历史记录
type StatusChange struct {
	OrderID    int
	FromStatus *string
	ToStatus   string
	Reason     string
	Actor      string
}
