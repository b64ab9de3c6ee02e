package service

import (
	"testing"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCreateOrder(t *testing.T) {
	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	service := NewOrderService(mockOrderRepo, mockProductRepo)

	// 测试成功创建，价格从商品目录快照
	mockProductRepo.On("GetProductByID", 10).Return(&model.Product{
		ID: 10, ProductName: "Basmati Rice 5kg", Price: 1500.00,
	}, nil)
	mockOrderRepo.On("CreateOrder", mock.AnythingOfType("*model.Order"), mock.Anything).Return(nil)

	order, err := service.CreateOrder(1, "12 Main St", "12 Main St", []OrderLine{
		{ProductID: 10, Quantity: 2},
	})
	assert.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	mockOrderRepo.AssertExpectations(t)

	items := mockOrderRepo.Calls[0].Arguments.Get(1).([]*model.OrderItem)
	assert.Len(t, items, 1)
	assert.Equal(t, "Basmati Rice 5kg", items[0].ProductName)
	assert.Equal(t, 1500.00, items[0].Price)

	// 测试商品不存在
	mockProductRepo.On("GetProductByID", 99).Return(nil, nil)
	_, err = service.CreateOrder(1, "12 Main St", "", []OrderLine{
		{ProductID: 99, Quantity: 1},
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// 测试数量非正
	_, err = service.CreateOrder(1, "12 Main St", "", []OrderLine{
		{ProductID: 10, Quantity: 0},
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSetStatus(t *testing.T) {
	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	service := NewOrderService(mockOrderRepo, mockProductRepo)

	// 测试合法状态变更，历史记录带前驱状态
	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{
		ID: 1, Status: model.OrderStatusPending,
	}, nil)
	mockOrderRepo.On("ApplyStatusChange", mock.MatchedBy(func(c *model.StatusChange) bool {
		return c.OrderID == 1 &&
			c.FromStatus != nil && *c.FromStatus == model.OrderStatusPending &&
			c.ToStatus == model.OrderStatusPaid
	})).Return(nil)

	err := service.SetStatus(1, model.OrderStatusPaid, "payment confirmed", "staff:3")
	assert.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)

	// 测试非法状态值，不触碰仓库
	err = service.SetStatus(1, "completed", "", "staff:3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStatus))

	// 测试订单不存在
	mockOrderRepo.On("GetOrderByID", 999).Return(nil, nil)
	err = service.SetStatus(999, model.OrderStatusPaid, "", "staff:3")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestGetTotal(t *testing.T) {
	service := NewOrderService(nil, nil)

	cached := 999.99
	order := &model.Order{
		ID:          1,
		TotalAmount: &cached, // 缓存值故意写错，总额必须按明细算
		Items: []*model.OrderItem{
			{Quantity: 2, Price: 500.00},
			{Quantity: 1, Price: 1500.00},
		},
	}

	assert.Equal(t, 2500.00, service.GetTotal(order))

	// 空订单总额为零
	assert.Equal(t, 0.0, service.GetTotal(&model.Order{}))
}

func TestAddItem(t *testing.T) {
	mockOrderRepo := new(MockOrderRepository)
	mockProductRepo := new(MockProductRepository)
	service := NewOrderService(mockOrderRepo, mockProductRepo)

	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{ID: 1}, nil)
	mockProductRepo.On("GetProductByID", 10).Return(&model.Product{
		ID: 10, ProductName: "Cooking Oil 1L", Price: 350.00,
	}, nil)
	mockOrderRepo.On("AddOrderItem", mock.AnythingOfType("*model.OrderItem")).Return(nil)

	item, err := service.AddItem(1, OrderLine{ProductID: 10, Quantity: 3})
	assert.NoError(t, err)
	assert.Equal(t, 350.00, item.Price)
	assert.Equal(t, 1050.00, item.Total())
	mockOrderRepo.AssertExpectations(t)
}

func TestUpdateItemQuantity(t *testing.T) {
	mockOrderRepo := new(MockOrderRepository)
	service := NewOrderService(mockOrderRepo, nil)

	mockOrderRepo.On("GetOrderItemByID", 5).Return(&model.OrderItem{
		ID: 5, OrderID: 1, Quantity: 2,
	}, nil)
	mockOrderRepo.On("UpdateOrderItemQuantity", 5, 4).Return(nil)

	err := service.UpdateItemQuantity(1, 5, 4)
	assert.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)

	// 明细属于其他订单时拒绝
	err = service.UpdateItemQuantity(2, 5, 4)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// 数量非正直接拒绝
	err = service.UpdateItemQuantity(1, 5, -1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestDeleteOrder(t *testing.T) {
	mockOrderRepo := new(MockOrderRepository)
	service := NewOrderService(mockOrderRepo, nil)

	mockOrderRepo.On("GetOrderByID", 1).Return(&model.Order{ID: 1}, nil)
	mockOrderRepo.On("DeleteOrder", 1).Return(nil)

	err := service.DeleteOrder(1)
	assert.NoError(t, err)
	mockOrderRepo.AssertExpectations(t)

	mockOrderRepo.On("GetOrderByID", 999).Return(nil, nil)
	err = service.DeleteOrder(999)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
