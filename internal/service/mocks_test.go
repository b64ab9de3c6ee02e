package service

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/D3stinn3/HC/internal/auditlog"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/provider"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	util.InitLogger("error")
	os.Exit(m.Run())
}

// MockOrderRepository 是 OrderRepository 接口的模拟实现
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(order *model.Order, items []*model.OrderItem) error {
	args := m.Called(order, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(id int) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAllOrders() ([]*model.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetOrdersByUser(userID int) ([]*model.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ApplyStatusChange(change *model.StatusChange) error {
	args := m.Called(change)
	return args.Error(0)
}

func (m *MockOrderRepository) GetStatusHistory(orderID int) ([]*model.OrderStatusHistory, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.OrderStatusHistory), args.Error(1)
}

func (m *MockOrderRepository) AddOrderItem(item *model.OrderItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateOrderItemQuantity(itemID, quantity int) error {
	args := m.Called(itemID, quantity)
	return args.Error(0)
}

func (m *MockOrderRepository) RemoveOrderItem(itemID int) error {
	args := m.Called(itemID)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderItemByID(itemID int) (*model.OrderItem, error) {
	args := m.Called(itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) ComputeOrderTotal(orderID int) (float64, error) {
	args := m.Called(orderID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockOrderRepository) DeleteOrder(orderID int) error {
	args := m.Called(orderID)
	return args.Error(0)
}

// MockPaymentRepository 是 PaymentRepository 接口的模拟实现
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePayment(payment *model.Payment) error {
	args := m.Called(payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByID(id int) (*model.Payment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentByOrderID(orderID int) (*model.Payment, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentByReference(reference string) (*model.Payment, error) {
	args := m.Called(reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SaveRawResponse(paymentID int, raw string) error {
	args := m.Called(paymentID, raw)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkPaymentVerified(reference string, transactionID string, verifiedAt time.Time) error {
	args := m.Called(reference, transactionID, verifiedAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkPaymentFailed(reference string) error {
	args := m.Called(reference)
	return args.Error(0)
}

func (m *MockPaymentRepository) CreateRefund(refund *model.Refund) error {
	args := m.Called(refund)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetRefundByID(id int) (*model.Refund, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Refund), args.Error(1)
}

func (m *MockPaymentRepository) GetRefundsByPayment(paymentID int) ([]*model.Refund, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Refund), args.Error(1)
}

func (m *MockPaymentRepository) GetProcessedRefundTotal(paymentID int) (float64, error) {
	args := m.Called(paymentID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockPaymentRepository) MarkRefundFailed(refundID int) error {
	args := m.Called(refundID)
	return args.Error(0)
}

func (m *MockPaymentRepository) ApplyRefundProcessed(refundID int, processedAt time.Time, markPaymentRefunded bool, orderChange *model.StatusChange) error {
	args := m.Called(refundID, processedAt, markPaymentRefunded, orderChange)
	return args.Error(0)
}

// MockShipmentRepository 是 ShipmentRepository 接口的模拟实现
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) CreateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error {
	args := m.Called(shipment, orderChange)
	return args.Error(0)
}

func (m *MockShipmentRepository) GetShipmentByID(id int) (*model.Shipment, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) GetShipmentsByOrder(orderID int) ([]*model.Shipment, error) {
	args := m.Called(orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) UpdateShipment(shipment *model.Shipment, orderChange *model.StatusChange) error {
	args := m.Called(shipment, orderChange)
	return args.Error(0)
}

// MockProductRepository 是 ProductRepository 接口的模拟实现
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetProductByID(id int) (*model.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockVerifier 是服务商验证接口的模拟实现
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) VerifyTransaction(ctx context.Context, reference string) (*provider.VerificationResult, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.VerificationResult), args.Error(1)
}

// memorySink 收集审计记录供断言
type memorySink struct {
	entries []*auditlog.Entry
}

func (s *memorySink) Append(entry *auditlog.Entry) {
	s.entries = append(s.entries, entry)
}
