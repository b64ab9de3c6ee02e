package model

import "time"

// Product 商品只读模型
// 订单核心只读取商品目录（下单时快照名称与价格），不做任何写入
type Product struct {
	ID            int       `json:"id"`
	ProductName   string    `json:"product_name"`
	Price         float64   `json:"price"`
	WeightVariant string    `json:"weight_variant,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
