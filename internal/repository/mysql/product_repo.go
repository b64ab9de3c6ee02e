package mysql

import (
	"database/sql"
	"fmt"

	"github.com/D3stinn3/HC/internal/model"
)

// ProductRepository 商品目录只读仓库
// 目录的写入由独立的商品服务负责，订单核心只做查询
type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) GetProductByID(id int) (*model.Product, error) {
	var product model.Product
	err := r.db.QueryRow(`
		SELECT id, product_name, price, COALESCE(weight_variant, ''), created_at, updated_at
		FROM products
		WHERE id = ?`, id).Scan(
		&product.ID, &product.ProductName, &product.Price,
		&product.WeightVariant, &product.CreatedAt, &product.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}
