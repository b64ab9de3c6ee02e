package interfaces

import "github.com/D3stinn3/HC/internal/model"

// ProductRepository 商品目录的只读协作方，订单核心不做写入
type ProductRepository interface {
	GetProductByID(id int) (*model.Product, error)
}
