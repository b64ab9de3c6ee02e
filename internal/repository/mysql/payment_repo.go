package mysql

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db}
}

func (r *PaymentRepository) CreatePayment(payment *model.Payment) error {
	util.Logger.Info("开始创建支付记录",
		zap.Int("order_id", payment.OrderID),
		zap.String("reference", payment.Reference),
		zap.Float64("amount", payment.AmountPaid))

	query := `
		INSERT INTO payments (order_id, reference, amount_paid, currency, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.Exec(query,
		payment.OrderID, payment.Reference, payment.AmountPaid,
		payment.Currency, payment.Status)
	if err != nil {
		util.Logger.Error("创建支付记录失败",
			zap.Error(err),
			zap.Int("order_id", payment.OrderID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取支付记录ID失败", zap.Error(err))
		return err
	}

	payment.ID = int(id)
	util.Logger.Info("支付记录创建成功",
		zap.Int("payment_id", payment.ID),
		zap.String("status", payment.Status))
	return nil
}

func (r *PaymentRepository) scanPayment(row *sql.Row) (*model.Payment, error) {
	var payment model.Payment
	var transactionID sql.NullString
	var verifiedAt sql.NullTime
	var rawResponse sql.NullString

	err := row.Scan(
		&payment.ID, &payment.OrderID, &payment.Reference, &transactionID,
		&payment.AmountPaid, &payment.Currency, &payment.Status,
		&rawResponse, &verifiedAt, &payment.CreatedAt, &payment.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if transactionID.Valid {
		payment.TransactionID = &transactionID.String
	}
	if verifiedAt.Valid {
		payment.VerifiedAt = &verifiedAt.Time
	}
	if rawResponse.Valid {
		payment.RawResponse = rawResponse.String
	}
	return &payment, nil
}

const paymentColumns = `id, order_id, reference, transaction_id, amount_paid, currency, status, raw_response, verified_at, created_at, updated_at`

func (r *PaymentRepository) GetPaymentByID(id int) (*model.Payment, error) {
	row := r.db.QueryRow(
		`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return r.scanPayment(row)
}

func (r *PaymentRepository) GetPaymentByOrderID(orderID int) (*model.Payment, error) {
	row := r.db.QueryRow(
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID)
	return r.scanPayment(row)
}

func (r *PaymentRepository) GetPaymentByReference(reference string) (*model.Payment, error) {
	row := r.db.QueryRow(
		`SELECT `+paymentColumns+` FROM payments WHERE reference = ?`, reference)
	return r.scanPayment(row)
}

// SaveRawResponse 保存服务商原始回调内容，无论验证结果如何都要落库
func (r *PaymentRepository) SaveRawResponse(paymentID int, raw string) error {
	_, err := r.db.Exec(
		`UPDATE payments SET raw_response = ?, updated_at = NOW() WHERE id = ?`,
		raw, paymentID)
	if err != nil {
		util.Logger.Error("保存原始回调失败",
			zap.Error(err),
			zap.Int("payment_id", paymentID))
		return fmt.Errorf("failed to save raw response: %w", err)
	}
	return nil
}

// MarkPaymentVerified 标记支付验证成功
// verified_at 用 COALESCE 保证只在第一次成功时写入，重复回调收敛到相同结果
func (r *PaymentRepository) MarkPaymentVerified(reference string, transactionID string, verifiedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE payments
		SET status = ?, transaction_id = ?, verified_at = COALESCE(verified_at, ?), updated_at = NOW()
		WHERE reference = ?`,
		model.PaymentStatusSuccess, transactionID, verifiedAt, reference)
	if err != nil {
		util.Logger.Error("标记支付成功失败",
			zap.Error(err),
			zap.String("reference", reference))
		return fmt.Errorf("failed to mark payment verified: %w", err)
	}

	util.Logger.Info("支付已标记为成功",
		zap.String("reference", reference),
		zap.String("transaction_id", transactionID))
	return nil
}

func (r *PaymentRepository) MarkPaymentFailed(reference string) error {
	_, err := r.db.Exec(`
		UPDATE payments SET status = ?, updated_at = NOW() WHERE reference = ?`,
		model.PaymentStatusFailed, reference)
	if err != nil {
		util.Logger.Error("标记支付失败出错",
			zap.Error(err),
			zap.String("reference", reference))
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	return nil
}

func (r *PaymentRepository) CreateRefund(refund *model.Refund) error {
	query := `
		INSERT INTO refunds (order_id, payment_id, amount, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.Exec(query,
		refund.OrderID, refund.PaymentID, refund.Amount, refund.Reason, refund.Status)
	if err != nil {
		util.Logger.Error("创建退款记录失败",
			zap.Error(err),
			zap.Int("payment_id", refund.PaymentID))
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	refund.ID = int(id)

	util.Logger.Info("退款记录创建成功",
		zap.Int("refund_id", refund.ID),
		zap.Float64("amount", refund.Amount))
	return nil
}

func (r *PaymentRepository) GetRefundByID(id int) (*model.Refund, error) {
	var refund model.Refund
	var processedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, order_id, payment_id, amount, COALESCE(reason, ''), status, processed_at, created_at, updated_at
		FROM refunds
		WHERE id = ?`, id).Scan(
		&refund.ID, &refund.OrderID, &refund.PaymentID, &refund.Amount,
		&refund.Reason, &refund.Status, &processedAt,
		&refund.CreatedAt, &refund.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refund: %w", err)
	}

	if processedAt.Valid {
		refund.ProcessedAt = &processedAt.Time
	}
	return &refund, nil
}

func (r *PaymentRepository) GetRefundsByPayment(paymentID int) ([]*model.Refund, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, payment_id, amount, COALESCE(reason, ''), status, processed_at, created_at, updated_at
		FROM refunds
		WHERE payment_id = ?
		ORDER BY created_at DESC`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	defer rows.Close()

	var refunds []*model.Refund
	for rows.Next() {
		var refund model.Refund
		var processedAt sql.NullTime
		err := rows.Scan(
			&refund.ID, &refund.OrderID, &refund.PaymentID, &refund.Amount,
			&refund.Reason, &refund.Status, &processedAt,
			&refund.CreatedAt, &refund.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan refund: %w", err)
		}
		if processedAt.Valid {
			refund.ProcessedAt = &processedAt.Time
		}
		refunds = append(refunds, &refund)
	}
	return refunds, rows.Err()
}

// GetProcessedRefundTotal 返回该支付下已完成退款的金额合计
func (r *PaymentRepository) GetProcessedRefundTotal(paymentID int) (float64, error) {
	var total float64
	err := r.db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE payment_id = ? AND status = ?`,
		paymentID, model.RefundStatusProcessed).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum processed refunds: %w", err)
	}
	return total, nil
}

func (r *PaymentRepository) MarkRefundFailed(refundID int) error {
	_, err := r.db.Exec(`
		UPDATE refunds SET status = ?, updated_at = NOW() WHERE id = ?`,
		model.RefundStatusFailed, refundID)
	if err != nil {
		return fmt.Errorf("failed to mark refund failed: %w", err)
	}
	return nil
}

// ApplyRefundProcessed 在同一事务内标记退款完成并联动支付、订单
// 崩溃不会出现"退款已完成但订单未联动"的中间态
func (r *PaymentRepository) ApplyRefundProcessed(refundID int, processedAt time.Time, markPaymentRefunded bool, orderChange *model.StatusChange) error {
	util.Logger.Info("开始应用退款完成",
		zap.Int("refund_id", refundID),
		zap.Bool("payment_refunded", markPaymentRefunded),
		zap.Bool("order_refunded", orderChange != nil))

	tx, err := r.db.Begin()
	if err != nil {
		util.Logger.Error("开始事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	// processed_at 只在第一次完成时写入
	_, err = tx.Exec(`
		UPDATE refunds
		SET status = ?, processed_at = COALESCE(processed_at, ?), updated_at = NOW()
		WHERE id = ?`,
		model.RefundStatusProcessed, processedAt, refundID)
	if err != nil {
		util.Logger.Error("更新退款状态失败", zap.Error(err), zap.Int("refund_id", refundID))
		return fmt.Errorf("failed to update refund: %w", err)
	}

	if markPaymentRefunded {
		_, err = tx.Exec(`
			UPDATE payments p
			JOIN refunds r ON r.payment_id = p.id
			SET p.status = ?, p.updated_at = NOW()
			WHERE r.id = ?`,
			model.PaymentStatusRefunded, refundID)
		if err != nil {
			util.Logger.Error("联动支付状态失败", zap.Error(err))
			return fmt.Errorf("failed to mark payment refunded: %w", err)
		}
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

	util.Logger.Info("退款完成已应用", zap.Int("refund_id", refundID))
	return nil
}
