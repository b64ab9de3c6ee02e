package service

import (
	"testing"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateRefund(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	mockOrderRepo := new(MockOrderRepository)
	service := NewRefundService(mockPaymentRepo, mockOrderRepo)

	payment := &model.Payment{
		ID: 7, OrderID: 1, AmountPaid: 2500.00,
		Status: model.PaymentStatusSuccess,
	}

	// 测试成功创建
	mockPaymentRepo.On("GetPaymentByID", 7).Return(payment, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(0.0, nil)
	mockPaymentRepo.On("CreateRefund", mock.MatchedBy(func(r *model.Refund) bool {
		return r.PaymentID == 7 && r.OrderID == 1 && r.Status == model.RefundStatusPending
	})).Return(nil)

	refund, err := service.CreateRefund(7, 500.00, "damaged item")
	assert.NoError(t, err)
	assert.Equal(t, model.RefundStatusPending, refund.Status)
	mockPaymentRepo.AssertExpectations(t)

	// 测试支付不存在
	mockPaymentRepo.On("GetPaymentByID", 99).Return(nil, nil)
	_, err = service.CreateRefund(99, 500.00, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCreateRefundAmountLimits(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	service := NewRefundService(mockPaymentRepo, new(MockOrderRepository))

	payment := &model.Payment{ID: 7, OrderID: 1, AmountPaid: 2500.00}
	mockPaymentRepo.On("GetPaymentByID", 7).Return(payment, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(0.0, nil)
	mockPaymentRepo.On("CreateRefund", mock.AnythingOfType("*model.Refund")).Return(nil)

	// 超过支付金额一分钱也不行
	_, err := service.CreateRefund(7, 2500.01, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAmount))

	// 金额非正
	_, err = service.CreateRefund(7, 0, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAmount))

	_, err = service.CreateRefund(7, -100, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAmount))

	// 正好等于支付金额可以
	_, err = service.CreateRefund(7, 2500.00, "")
	assert.NoError(t, err)
}

func TestCreateRefundRespectsProcessedTotal(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	service := NewRefundService(mockPaymentRepo, new(MockOrderRepository))

	// 已完成退款 2000，可退余额只剩 500
	payment := &model.Payment{ID: 7, OrderID: 1, AmountPaid: 2500.00}
	mockPaymentRepo.On("GetPaymentByID", 7).Return(payment, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(2000.0, nil)
	mockPaymentRepo.On("CreateRefund", mock.AnythingOfType("*model.Refund")).Return(nil)

	_, err := service.CreateRefund(7, 600.00, "")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAmount))

	_, err = service.CreateRefund(7, 500.00, "")
	assert.NoError(t, err)
}

func TestSetRefundStatusRejectsInvalid(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	service := NewRefundService(mockPaymentRepo, new(MockOrderRepository))

	// 只接受 processed 和 failed
	err := service.SetRefundStatus(1, model.RefundStatusPending, "staff:3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStatus))

	err = service.SetRefundStatus(1, "done", "staff:3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStatus))
	mockPaymentRepo.AssertNotCalled(t, "GetRefundByID", mock.Anything)
}

func TestSetRefundStatusFailed(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	service := NewRefundService(mockPaymentRepo, new(MockOrderRepository))

	mockPaymentRepo.On("GetRefundByID", 3).Return(&model.Refund{
		ID: 3, OrderID: 1, PaymentID: 7, Amount: 500.00,
		Status: model.RefundStatusPending,
	}, nil)
	mockPaymentRepo.On("MarkRefundFailed", 3).Return(nil)

	err := service.SetRefundStatus(3, model.RefundStatusFailed, "staff:3")
	assert.NoError(t, err)
	mockPaymentRepo.AssertExpectations(t)
	mockPaymentRepo.AssertNotCalled(t, "ApplyRefundProcessed",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetRefundStatusPartialProcessed(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	mockOrderRepo := new(MockOrderRepository)
	service := NewRefundService(mockPaymentRepo, mockOrderRepo)

	// 部分退款：既不触发支付 refunded，也不触发订单 refunded
	mockPaymentRepo.On("GetRefundByID", 3).Return(&model.Refund{
		ID: 3, OrderID: 1, PaymentID: 7, Amount: 500.00,
		Status: model.RefundStatusPending,
	}, nil)
	mockPaymentRepo.On("GetPaymentByID", 7).Return(&model.Payment{
		ID: 7, OrderID: 1, AmountPaid: 2500.00, Status: model.PaymentStatusSuccess,
	}, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(0.0, nil)
	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{
		ID: 1, Status: model.OrderStatusDelivered,
	}, nil)
	mockOrderRepo.On("ComputeOrderTotal", 1).Return(2500.0, nil)
	mockPaymentRepo.On("ApplyRefundProcessed", 3, mock.AnythingOfType("time.Time"),
		false, (*model.StatusChange)(nil)).Return(nil)

	err := service.SetRefundStatus(3, model.RefundStatusProcessed, "staff:3")
	assert.NoError(t, err)
	mockPaymentRepo.AssertExpectations(t)
}

func TestSetRefundStatusFullCoverage(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	mockOrderRepo := new(MockOrderRepository)
	service := NewRefundService(mockPaymentRepo, mockOrderRepo)

	// 两笔 500 已完成，这笔 1500 完成后合计 2500，覆盖全额：
	// 支付转 refunded，订单转 refunded，且在同一事务内联动
	mockPaymentRepo.On("GetRefundByID", 5).Return(&model.Refund{
		ID: 5, OrderID: 1, PaymentID: 7, Amount: 1500.00,
		Status: model.RefundStatusPending,
	}, nil)
	mockPaymentRepo.On("GetPaymentByID", 7).Return(&model.Payment{
		ID: 7, OrderID: 1, AmountPaid: 2500.00, Status: model.PaymentStatusSuccess,
	}, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(1000.0, nil)
	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{
		ID: 1, Status: model.OrderStatusDelivered,
	}, nil)
	mockOrderRepo.On("ComputeOrderTotal", 1).Return(2500.0, nil)
	mockPaymentRepo.On("ApplyRefundProcessed", 5, mock.AnythingOfType("time.Time"),
		true, mock.MatchedBy(func(c *model.StatusChange) bool {
			return c != nil && c.OrderID == 1 &&
				c.FromStatus != nil && *c.FromStatus == model.OrderStatusDelivered &&
				c.ToStatus == model.OrderStatusRefunded
		})).Return(nil)

	err := service.SetRefundStatus(5, model.RefundStatusProcessed, "staff:3")
	assert.NoError(t, err)
	mockPaymentRepo.AssertExpectations(t)
}

func TestSetRefundStatusRechecksRemainder(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	mockOrderRepo := new(MockOrderRepository)
	service := NewRefundService(mockPaymentRepo, mockOrderRepo)

	// 两笔各 100 的待处理退款共用同一笔余额：
	// 第一笔完成后余额归零，第二笔完成时必须被拒绝，不能写库
	mockPaymentRepo.On("GetRefundByID", 2).Return(&model.Refund{
		ID: 2, OrderID: 1, PaymentID: 7, Amount: 100.00,
		Status: model.RefundStatusPending,
	}, nil)
	mockPaymentRepo.On("GetPaymentByID", 7).Return(&model.Payment{
		ID: 7, OrderID: 1, AmountPaid: 100.00, Status: model.PaymentStatusRefunded,
	}, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(100.0, nil)

	err := service.SetRefundStatus(2, model.RefundStatusProcessed, "staff:3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidAmount))
	mockPaymentRepo.AssertNotCalled(t, "ApplyRefundProcessed",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSetRefundStatusProcessedTwice(t *testing.T) {
	mockPaymentRepo := new(MockPaymentRepository)
	mockOrderRepo := new(MockOrderRepository)
	service := NewRefundService(mockPaymentRepo, mockOrderRepo)

	// 退款已是 processed 再标记一次：金额不重复计入，订单已 refunded 不再联动
	mockPaymentRepo.On("GetRefundByID", 5).Return(&model.Refund{
		ID: 5, OrderID: 1, PaymentID: 7, Amount: 2500.00,
		Status: model.RefundStatusProcessed,
	}, nil)
	mockPaymentRepo.On("GetPaymentByID", 7).Return(&model.Payment{
		ID: 7, OrderID: 1, AmountPaid: 2500.00, Status: model.PaymentStatusRefunded,
	}, nil)
	mockPaymentRepo.On("GetProcessedRefundTotal", 7).Return(2500.0, nil)
	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{
		ID: 1, Status: model.OrderStatusRefunded,
	}, nil)
	mockOrderRepo.On("ComputeOrderTotal", 1).Return(2500.0, nil)
	mockPaymentRepo.On("ApplyRefundProcessed", 5, mock.AnythingOfType("time.Time"),
		true, (*model.StatusChange)(nil)).Return(nil)

	err := service.SetRefundStatus(5, model.RefundStatusProcessed, "staff:3")
	assert.NoError(t, err)
	mockPaymentRepo.AssertExpectations(t)
}
