package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// applyStatusChangeTx 在给定事务内更新订单状态并追加历史记录
// 所有状态变更必须走这里，禁止直接 UPDATE status
func applyStatusChangeTx(tx *sql.Tx, change *model.StatusChange) error {
	_, err := tx.Exec(`UPDATE orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		change.ToStatus, change.OrderID)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO order_status_history (order_id, from_status, to_status, reason, actor, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`,
		change.OrderID, change.FromStatus, change.ToStatus, change.Reason, change.Actor)
	if err != nil {
		return fmt.Errorf("failed to append status history: %w", err)
	}

	return nil
}

// recomputeOrderTotalTx 按明细重算缓存总额
func recomputeOrderTotalTx(tx *sql.Tx, orderID int) error {
	_, err := tx.Exec(`
		UPDATE orders
		SET total_amount = (
			SELECT COALESCE(SUM(quantity * price), 0)
			FROM order_items
			WHERE order_id = ?
		), updated_at = NOW()
		WHERE id = ?`, orderID, orderID)
	if err != nil {
		return fmt.Errorf("failed to recompute order total: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateOrder(order *model.Order, items []*model.OrderItem) error {
	util.Logger.Info("开始创建订单",
		zap.Int("user_id", order.UserID),
		zap.Int("item_count", len(items)))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if order.Status == "" {
		order.Status = model.OrderStatusPending
	}
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now()
	}
	if order.OrderTime == "" {
		order.OrderTime = time.Now().Format("15:04:05")
	}

	query := `
		INSERT INTO orders (user_id, total_amount, status, order_date, order_time,
			shipping_address, billing_address, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := tx.Exec(query,
		order.UserID, order.TotalAmount, order.Status,
		order.OrderDate.Format("2006-01-02"), order.OrderTime,
		order.ShippingAddress, order.BillingAddress)
	if err != nil {
		util.Logger.Error("插入订单记录失败", zap.Error(err))
		return fmt.Errorf("failed to insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取订单ID失败", zap.Error(err))
		return fmt.Errorf("failed to get order ID: %w", err)
	}
	order.ID = int(id)

	for _, item := range items {
		item.OrderID = order.ID
		result, err := tx.Exec(`
			INSERT INTO order_items (order_id, product_id, product_name, quantity, price, weight_variant, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`,
			item.OrderID, item.ProductID, item.ProductName,
			item.Quantity, item.Price, item.WeightVariant)
		if err != nil {
			util.Logger.Error("插入订单明细失败",
				zap.Error(err),
				zap.Int("product_id", item.ProductID))
			return fmt.Errorf("failed to insert order item: %w", err)
		}
		itemID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get order item ID: %w", err)
		}
		item.ID = int(itemID)
	}

	if err := recomputeOrderTotalTx(tx, order.ID); err != nil {
		return err
	}

	// 创建事件是 from_status 唯一允许为空的历史记录
	_, err = tx.Exec(`
		INSERT INTO order_status_history (order_id, from_status, to_status, reason, actor, created_at)
		VALUES (?, NULL, ?, 'order created', ?, NOW())`,
		order.ID, order.Status, fmt.Sprintf("user:%d", order.UserID))
	if err != nil {
		util.Logger.Error("写入创建历史失败", zap.Error(err))
		return fmt.Errorf("failed to append creation history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Items = items
	util.Logger.Info("订单创建成功",
		zap.Int("order_id", order.ID),
		zap.String("status", order.Status))
	return nil
}

func (r *OrderRepository) GetOrderByID(id int) (*model.Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, order_date, order_time,
			   shipping_address, billing_address, created_at, updated_at
		FROM orders
		WHERE id = ?`

	var order model.Order
	var totalAmount sql.NullFloat64
	var orderDate string

	err := r.db.QueryRow(query, id).Scan(
		&order.ID, &order.UserID, &totalAmount, &order.Status,
		&orderDate, &order.OrderTime,
		&order.ShippingAddress, &order.BillingAddress,
		&order.CreatedAt, &order.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询订单失败", zap.Error(err), zap.Int("order_id", id))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if totalAmount.Valid {
		order.TotalAmount = &totalAmount.Float64
	}
	if t, err := time.Parse("2006-01-02", orderDate); err == nil {
		order.OrderDate = t
	}

	items, err := r.getOrderItems(id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *OrderRepository) getOrderItems(orderID int) ([]*model.OrderItem, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, product_id, product_name, quantity, price,
			   COALESCE(weight_variant, ''), created_at, updated_at
		FROM order_items
		WHERE order_id = ?
		ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []*model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.Price, &item.WeightVariant,
			&item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *OrderRepository) scanOrders(rows *sql.Rows) ([]*model.Order, error) {
	var orders []*model.Order
	for rows.Next() {
		var order model.Order
		var totalAmount sql.NullFloat64
		var orderDate string

		err := rows.Scan(
			&order.ID, &order.UserID, &totalAmount, &order.Status,
			&orderDate, &order.OrderTime,
			&order.ShippingAddress, &order.BillingAddress,
			&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			util.Logger.Error("扫描订单数据失败", zap.Error(err))
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}

		if totalAmount.Valid {
			order.TotalAmount = &totalAmount.Float64
		}
		if t, err := time.Parse("2006-01-02", orderDate); err == nil {
			order.OrderDate = t
		}
		orders = append(orders, &order)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) GetAllOrders() ([]*model.Order, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, total_amount, status, order_date, order_time,
			   shipping_address, billing_address, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()
	return r.scanOrders(rows)
}

func (r *OrderRepository) GetOrdersByUser(userID int) ([]*model.Order, error) {
	util.Logger.Info("开始获取用户订单列表", zap.Int("user_id", userID))

	rows, err := r.db.Query(`
		SELECT id, user_id, total_amount, status, order_date, order_time,
			   shipping_address, billing_address, created_at, updated_at
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		util.Logger.Error("查询订单失败", zap.Error(err), zap.Int("user_id", userID))
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders, err := r.scanOrders(rows)
	if err != nil {
		return nil, err
	}

	util.Logger.Info("成功获取用户订单列表",
		zap.Int("user_id", userID),
		zap.Int("order_count", len(orders)))
	return orders, nil
}

func (r *OrderRepository) ApplyStatusChange(change *model.StatusChange) error {
	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := applyStatusChangeTx(tx, change); err != nil {
		util.Logger.Error("应用状态变更失败",
			zap.Error(err),
			zap.Int("order_id", change.OrderID),
			zap.String("to_status", change.ToStatus))
		return err
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	util.Logger.Info("订单状态已变更",
		zap.Int("order_id", change.OrderID),
		zap.Any("from_status", change.FromStatus),
		zap.String("to_status", change.ToStatus))
	return nil
}

func (r *OrderRepository) GetStatusHistory(orderID int) ([]*model.OrderStatusHistory, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, from_status, to_status, COALESCE(reason, ''), COALESCE(actor, ''), created_at
		FROM order_status_history
		WHERE order_id = ?
		ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var history []*model.OrderStatusHistory
	for rows.Next() {
		var h model.OrderStatusHistory
		var fromStatus sql.NullString
		err := rows.Scan(&h.ID, &h.OrderID, &fromStatus, &h.ToStatus, &h.Reason, &h.Actor, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		if fromStatus.Valid {
			h.FromStatus = &fromStatus.String
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

func (r *OrderRepository) AddOrderItem(item *model.OrderItem) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO order_items (order_id, product_id, product_name, quantity, price, weight_variant, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		item.OrderID, item.ProductID, item.ProductName,
		item.Quantity, item.Price, item.WeightVariant)
	if err != nil {
		util.Logger.Error("插入订单明细失败", zap.Error(err))
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get order item ID: %w", err)
	}
	item.ID = int(id)

	if err := recomputeOrderTotalTx(tx, item.OrderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) UpdateOrderItemQuantity(itemID, quantity int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var orderID int
	err = tx.QueryRow(`SELECT order_id FROM order_items WHERE id = ?`, itemID).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("failed to find order item: %w", err)
	}

	// 价格是下单时的快照，这里只允许改数量
	_, err = tx.Exec(`UPDATE order_items SET quantity = ?, updated_at = NOW() WHERE id = ?`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}

	if err := recomputeOrderTotalTx(tx, orderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) RemoveOrderItem(itemID int) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var orderID int
	err = tx.QueryRow(`SELECT order_id FROM order_items WHERE id = ?`, itemID).Scan(&orderID)
	if err != nil {
		return fmt.Errorf("failed to find order item: %w", err)
	}

	_, err = tx.Exec(`DELETE FROM order_items WHERE id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}

	if err := recomputeOrderTotalTx(tx, orderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *OrderRepository) GetOrderItemByID(itemID int) (*model.OrderItem, error) {
	var item model.OrderItem
	err := r.db.QueryRow(`
		SELECT id, order_id, product_id, product_name, quantity, price,
			   COALESCE(weight_variant, ''), created_at, updated_at
		FROM order_items
		WHERE id = ?`, itemID).Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
		&item.Quantity, &item.Price, &item.WeightVariant,
		&item.CreatedAt, &item.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return &item, nil
}

// ComputeOrderTotal 返回权威总额（明细合计），不读缓存列
func (r *OrderRepository) ComputeOrderTotal(orderID int) (float64, error) {
	var total float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(quantity * price), 0)
		FROM order_items
		WHERE order_id = ?`, orderID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to compute order total: %w", err)
	}
	return total, nil
}

func (r *OrderRepository) DeleteOrder(orderID int) error {
	util.Logger.Info("开始删除订单", zap.Int("order_id", orderID))

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 明细和历史随订单级联删除；支付、退款、发货属于财务与履约记录，保留
	if _, err = tx.Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM order_status_history WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to delete status history: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM orders WHERE id = ?`, orderID); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	util.Logger.Info("订单删除成功", zap.Int("order_id", orderID))
	return nil
}
