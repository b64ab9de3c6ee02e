package service

import (
	"fmt"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/repository/interfaces"
	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

// OrderService 负责订单生命周期：状态机、明细维护、总额计算
type OrderService struct {
	orderRepo   interfaces.OrderRepository
	productRepo interfaces.ProductRepository
}

func NewOrderService(orderRepo interfaces.OrderRepository, productRepo interfaces.ProductRepository) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// OrderLine 创建订单或追加明细时的输入
type OrderLine struct {
	ProductID int `json:"product_id" binding:"required"`
	Quantity  int `json:"quantity" binding:"required,gt=0"`
}

// CreateOrder 创建订单，可以不带明细
// 名称与价格在此刻从商品目录快照，之后目录调价不影响已下订单
func (s *OrderService) CreateOrder(userID int, shippingAddress, billingAddress string, lines []OrderLine) (*model.Order, error) {
	util.Logger.Info("开始创建订单",
		zap.Int("user_id", userID),
		zap.Int("line_count", len(lines)))

	var items []*model.OrderItem
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.New(errors.ErrValidation, "quantity must be a positive integer")
		}

		product, err := s.productRepo.GetProductByID(line.ProductID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, "failed to look up product", err)
		}
		if product == nil {
			return nil, errors.New(errors.ErrNotFound, fmt.Sprintf("product %d not found", line.ProductID))
		}

		items = append(items, &model.OrderItem{
			ProductID:     product.ID,
			ProductName:   product.ProductName,
			Quantity:      line.Quantity,
			Price:         product.Price,
			WeightVariant: product.WeightVariant,
		})
	}

	order := &model.Order{
		UserID:          userID,
		Status:          model.OrderStatusPending,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
	}

	if err := s.orderRepo.CreateOrder(order, items); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create order", err)
	}

	return order, nil
}

// SetStatus 订单状态机的唯一入口
// 只校验枚举成员，不限制状态跳转；每次变更在同一事务内追加历史记录
func (s *OrderService) SetStatus(orderID int, newStatus, reason, actor string) error {
	if !model.IsValidOrderStatus(newStatus) {
		return errors.New(errors.ErrInvalidStatus, fmt.Sprintf("invalid order status: %s", newStatus))
	}

	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return errors.New(errors.ErrNotFound, "order not found")
	}

	previousStatus := order.Status
	change := &model.StatusChange{
		OrderID:    orderID,
		FromStatus: &previousStatus,
		ToStatus:   newStatus,
		Reason:     reason,
		Actor:      actor,
	}

	if err := s.orderRepo.ApplyStatusChange(change); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to apply status change", err)
	}

	return nil
}

// GetTotal 返回权威总额：明细数量×价格的合计
// 不读缓存列，明细变动后结果立即正确
func (s *OrderService) GetTotal(order *model.Order) float64 {
	var total float64
	for _, item := range order.Items {
		total += item.Total()
	}
	return total
}

func (s *OrderService) GetOrderByID(orderID int) (*model.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}
	return order, nil
}

func (s *OrderService) GetAllOrders() ([]*model.Order, error) {
	orders, err := s.orderRepo.GetAllOrders()
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrdersByUser(userID int) ([]*model.Order, error) {
	orders, err := s.orderRepo.GetOrdersByUser(userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to list orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetStatusHistory(orderID int) ([]*model.OrderStatusHistory, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}

	history, err := s.orderRepo.GetStatusHistory(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get status history", err)
	}
	return history, nil
}

// AddItem 向订单追加明细，价格在此刻快照
func (s *OrderService) AddItem(orderID int, line OrderLine) (*model.OrderItem, error) {
	if line.Quantity <= 0 {
		return nil, errors.New(errors.ErrValidation, "quantity must be a positive integer")
	}

	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}

	product, err := s.productRepo.GetProductByID(line.ProductID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to look up product", err)
	}
	if product == nil {
		return nil, errors.New(errors.ErrNotFound, fmt.Sprintf("product %d not found", line.ProductID))
	}

	item := &model.OrderItem{
		OrderID:       orderID,
		ProductID:     product.ID,
		ProductName:   product.ProductName,
		Quantity:      line.Quantity,
		Price:         product.Price,
		WeightVariant: product.WeightVariant,
	}

	if err := s.orderRepo.AddOrderItem(item); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to add order item", err)
	}

	return item, nil
}

// UpdateItemQuantity 修改明细数量，价格快照不可变
func (s *OrderService) UpdateItemQuantity(orderID, itemID, quantity int) error {
	if quantity <= 0 {
		return errors.New(errors.ErrValidation, "quantity must be a positive integer")
	}

	item, err := s.orderRepo.GetOrderItemByID(itemID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get order item", err)
	}
	if item == nil || item.OrderID != orderID {
		return errors.New(errors.ErrNotFound, "order item not found")
	}

	if err := s.orderRepo.UpdateOrderItemQuantity(itemID, quantity); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to update order item", err)
	}
	return nil
}

func (s *OrderService) RemoveItem(orderID, itemID int) error {
	item, err := s.orderRepo.GetOrderItemByID(itemID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get order item", err)
	}
	if item == nil || item.OrderID != orderID {
		return errors.New(errors.ErrNotFound, "order item not found")
	}

	if err := s.orderRepo.RemoveOrderItem(itemID); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to remove order item", err)
	}
	return nil
}

func (s *OrderService) DeleteOrder(orderID int) error {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return errors.New(errors.ErrNotFound, "order not found")
	}

	if err := s.orderRepo.DeleteOrder(orderID); err != nil {
		return errors.Wrap(errors.ErrDatabase, "failed to delete order", err)
	}
	return nil
}
