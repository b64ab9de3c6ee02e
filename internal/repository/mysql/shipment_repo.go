package mysql

import (
	"database/sql"
	"fmt"

	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

type ShipmentRepository struct {
	db *sql.DB
}

func NewShipmentRepository(db *sql.DB) *ShipmentRepository {
	return &ShipmentRepository{db}
}

func (r *ShipmentRepository) CreateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error {
	util.Logger.Info("开始创建发货单",
		zap.Int("order_id", shipment.OrderID),
		zap.Int("item_count", len(shipment.Items)))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if shipment.Status == "" {
		shipment.Status = model.ShipmentStatusPending
	}

	result, err := tx.Exec(`
		INSERT INTO shipments (order_id, carrier, tracking_number, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, NOW(), NOW())`,
		shipment.OrderID, shipment.Carrier, shipment.TrackingNumber, shipment.Status)
	if err != nil {
		util.Logger.Error("插入发货单失败", zap.Error(err))
		return fmt.Errorf("failed to insert shipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get shipment ID: %w", err)
	}
	shipment.ID = int(id)

	for _, item := range shipment.Items {
		item.ShipmentID = shipment.ID
		result, err := tx.Exec(`
			INSERT INTO shipment_items (shipment_id, order_item_id, quantity)
			VALUES (?, ?, ?)`,
			item.ShipmentID, item.OrderItemID, item.Quantity)
		if err != nil {
			util.Logger.Error("插入发货明细失败",
				zap.Error(err),
				zap.Int("order_item_id", item.OrderItemID))
			return fmt.Errorf("failed to insert shipment item: %w", err)
		}
		itemID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get shipment item ID: %w", err)
		}
		item.ID = int(itemID)
	}

	if orderChange != nil {
		if err := applyStatusChangeTx(tx, orderChange); err != nil {
			util.Logger.Error("联动订单状态失败",
				zap.Error(err),
				zap.Int("order_id", orderChange.OrderID))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	util.Logger.Info("发货单创建成功",
		zap.Int("shipment_id", shipment.ID),
		zap.Int("order_id", shipment.OrderID))
	return nil
}

func (r *ShipmentRepository) GetShipmentByID(id int) (*model.Shipment, error) {
	var shipment model.Shipment
	var shippedAt, deliveredAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, order_id, COALESCE(carrier, ''), COALESCE(tracking_number, ''), status,
			   shipped_at, delivered_at, created_at, updated_at
		FROM shipments
		WHERE id = ?`, id).Scan(
		&shipment.ID, &shipment.OrderID, &shipment.Carrier, &shipment.TrackingNumber,
		&shipment.Status, &shippedAt, &deliveredAt,
		&shipment.CreatedAt, &shipment.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}

	if shippedAt.Valid {
		shipment.ShippedAt = &shippedAt.Time
	}
	if deliveredAt.Valid {
		shipment.DeliveredAt = &deliveredAt.Time
	}

	items, err := r.getShipmentItems(id)
	if err != nil {
		return nil, err
	}
	shipment.Items = items

	return &shipment, nil
}

func (r *ShipmentRepository) getShipmentItems(shipmentID int) ([]*model.ShipmentItem, error) {
	rows, err := r.db.Query(`
		SELECT id, shipment_id, order_item_id, quantity
		FROM shipment_items
		WHERE shipment_id = ?
		ORDER BY id ASC`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipment items: %w", err)
	}
	defer rows.Close()

	var items []*model.ShipmentItem
	for rows.Next() {
		var item model.ShipmentItem
		if err := rows.Scan(&item.ID, &item.ShipmentID, &item.OrderItemID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan shipment item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *ShipmentRepository) GetShipmentsByOrder(orderID int) ([]*model.Shipment, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, COALESCE(carrier, ''), COALESCE(tracking_number, ''), status,
			   shipped_at, delivered_at, created_at, updated_at
		FROM shipments
		WHERE order_id = ?
		ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*model.Shipment
	for rows.Next() {
		var shipment model.Shipment
		var shippedAt, deliveredAt sql.NullTime
		err := rows.Scan(
			&shipment.ID, &shipment.OrderID, &shipment.Carrier, &shipment.TrackingNumber,
			&shipment.Status, &shippedAt, &deliveredAt,
			&shipment.CreatedAt, &shipment.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		if shippedAt.Valid {
			shipment.ShippedAt = &shippedAt.Time
		}
		if deliveredAt.Valid {
			shipment.DeliveredAt = &deliveredAt.Time
		}
		shipments = append(shipments, &shipment)
	}
	return shipments, rows.Err()
}

// UpdateShipment 更新发货单字段并按需联动订单状态，同一事务内完成
func (r *ShipmentRepository) UpdateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error {
	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE shipments
		SET carrier = ?, tracking_number = ?, status = ?,
			shipped_at = ?, delivered_at = ?, updated_at = NOW()
		WHERE id = ?`,
		shipment.Carrier, shipment.TrackingNumber, shipment.Status,
		shipment.ShippedAt, shipment.DeliveredAt, shipment.ID)
	if err != nil {
		util.Logger.Error("更新发货单失败",
			zap.Error(err),
			zap.Int("shipment_id", shipment.ID))
		return fmt.Errorf("failed to update shipment: %w", err)
	}

	if orderChange != nil {
		if err := applyStatusChangeTx(tx, orderChange); err != nil {
			util.Logger.Error("联动订单状态失败",
				zap.Error(err),
				zap.Int("order_id", orderChange.OrderID))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	util.Logger.Info("发货单已更新",
		zap.Int("shipment_id", shipment.ID),
		zap.String("status", shipment.Status))
	return nil
}
