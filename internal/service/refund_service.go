package service

import (
	"fmt"
	"time"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/repository/interfaces"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

// RefundService 负责退款台账
// 不变量：同一支付下 processed 退款金额合计不得超过 amount_paid
type RefundService struct {
	paymentRepo interfaces.PaymentRepository
	orderRepo   interfaces.OrderRepository
}

func NewRefundService(paymentRepo interfaces.PaymentRepository, orderRepo interfaces.OrderRepository) *RefundService {
	return &RefundService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
	}
}

// CreateRefund 创建待处理退款
// 校验金额上限：本次金额不得超过 amount_paid 减去已完成退款合计
func (s *RefundService) CreateRefund(paymentID int, amount float64, reason string) (*model.Refund, error) {
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil {
		return nil, errors.New(errors.ErrNotFound, "payment not found")
	}

	processedTotal, err := s.paymentRepo.GetProcessedRefundTotal(paymentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to sum processed refunds", err)
	}

	remaining := payment.AmountPaid - processedTotal
	if amount <= 0 || amount > remaining {
		return nil, errors.New(errors.ErrInvalidAmount,
			fmt.Sprintf("refund amount %.2f exceeds refundable balance %.2f", amount, remaining))
	}

	refund := &model.Refund{
		OrderID:   payment.OrderID,
		PaymentID: paymentID,
		Amount:    amount,
		Reason:    reason,
		Status:    model.RefundStatusPending,
	}

	if err := s.paymentRepo.CreateRefund(refund); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create refund", err)
	}

	util.Logger.Info("退款已创建",
		zap.Int("refund_id", refund.ID),
		zap.Int("payment_id", paymentID),
		zap.Float64("amount", amount))
	return refund, nil
}

// SetRefundStatus 推进退款状态，只接受 processed 和 failed
//
// 标记 processed 时在同一事务内联动：已完成退款合计达到 amount_paid
// 则支付转 refunded，达到订单权威总额则订单转 refunded
func (s *RefundService) SetRefundStatus(refundID int, newStatus, actor string) error {
	if newStatus != model.RefundStatusProcessed && newStatus != model.RefundStatusFailed {
		return errors.New(errors.ErrInvalidStatus,
			fmt.Sprintf("invalid refund status: %s", newStatus))
	}

	refund, err := s.paymentRepo.GetRefundByID(refundID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get refund", err)
	}
	if refund == nil {
		return errors.New(errors.ErrNotFound, "refund not found")
	}

	if newStatus == model.RefundStatusFailed {
		if err := s.paymentRepo.MarkRefundFailed(refundID); err != nil {
			return errors.Wrap(errors.ErrDatabase, "failed to mark refund failed", err)
		}
		return nil
	}

	payment, err := s.paymentRepo.GetPaymentByID(refund.PaymentID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil {
		return errors.New(errors.ErrNotFound, "payment not found")
	}

	processedTotal, err := s.paymentRepo.GetProcessedRefundTotal(refund.PaymentID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to sum processed refunds", err)
	}
	// 重复标记不重复计入
	if refund.Status != model.RefundStatusProcessed {
		// 多笔待处理退款可能共用同一笔余额，完成时必须重新校验，
		// 否则已完成合计会超过 amount_paid
		if refund.Amount > payment.AmountPaid-processedTotal {
			return errors.New(errors.ErrInvalidAmount,
				fmt.Sprintf("refund amount %.2f exceeds refundable balance %.2f",
					refund.Amount, payment.AmountPaid-processedTotal))
		}
		processedTotal += refund.Amount
	}

	markPaymentRefunded := processedTotal >= payment.AmountPaid

	order, err := s.orderRepo.GetOrderByID(refund.OrderID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return errors.New(errors.ErrNotFound, "order not found")
	}

	// 订单是否全额退款以权威总额为准，不信缓存列
	orderTotal, err := s.orderRepo.ComputeOrderTotal(refund.OrderID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to compute order total", err)
	}

	var orderChange *model.StatusChange
	if processedTotal >= orderTotal && order.Status != model.OrderStatusRefunded {
		previousStatus := order.Status
		orderChange = &model.StatusChange{
			OrderID:    refund.OrderID,
			FromStatus: &previousStatus,
			ToStatus:   model.OrderStatusRefunded,
			Reason:     "refunded in full",
			Actor:      actor,
		}
	}

	if err := s.paymentRepo.ApplyRefundProcessed(refundID, time.Now(), markPaymentRefunded, orderChange); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to apply refund", err)
	}

	util.Logger.Info("退款已完成",
		zap.Int("refund_id", refundID),
		zap.Float64("processed_total", processedTotal),
		zap.Bool("payment_refunded", markPaymentRefunded),
		zap.Bool("order_refunded", orderChange != nil))
	return nil
}

func (s *RefundService) GetRefundByID(refundID int) (*model.Refund, error) {
	refund, err := s.paymentRepo.GetRefundByID(refundID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get refund", err)
	}
	if refund == nil {
		return nil, errors.New(errors.ErrNotFound, "refund not found")
	}
	return refund, nil
}

func (s *RefundService) GetRefundsByPayment(paymentID int) ([]*model.Refund, error) {
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil {
		return nil, errors.New(errors.ErrNotFound, "payment not found")
	}

	refunds, err := s.paymentRepo.GetRefundsByPayment(paymentID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list refunds", err)
	}
	return refunds, nil
}
