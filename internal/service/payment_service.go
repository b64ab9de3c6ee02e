package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/D3stinn3/HC/internal/auditlog"
	"github.com/D3stinn3/HC/internal/common"
	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/model"
	"github.com/D3stinn3/HC/internal/provider"
	"github.com/D3stinn3/HC/internal/repository/interfaces"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const providerVerifyRetries = 3

// ReplayMarker 记录已见过的回调签名，仅用于观测重放
type ReplayMarker interface {
	MarkWebhookSeen(ctx context.Context, signature string, ttl time.Duration) bool
}

// PaymentService 负责支付记录与服务商回调验证
// 回调只是触发器：支付能否标记成功，以服务商查询接口的结果为准
type PaymentService struct {
	paymentRepo interfaces.PaymentRepository
	orderRepo   interfaces.OrderRepository
	verifier    provider.Verifier
	audit       auditlog.Sink
	replay      ReplayMarker
	secret      string
	tolerance   time.Duration
}

func NewPaymentService(
	paymentRepo interfaces.PaymentRepository,
	orderRepo interfaces.OrderRepository,
	verifier provider.Verifier,
	audit auditlog.Sink,
	replay ReplayMarker,
	secret string,
	tolerance time.Duration,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		orderRepo:   orderRepo,
		verifier:    verifier,
		audit:       audit,
		replay:      replay,
		secret:      secret,
		tolerance:   tolerance,
	}
}

// CreatePayment 为订单创建待支付记录
// 每个订单最多一条支付，reference 为空时自动生成
func (s *PaymentService) CreatePayment(orderID int, reference string, amount float64, currency string) (*model.Payment, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get order", err)
	}
	if order == nil {
		return nil, errors.New(errors.ErrNotFound, "order not found")
	}

	if amount <= 0 {
		return nil, errors.New(errors.ErrInvalidAmount, "amount must be greater than zero")
	}

	existing, err := s.paymentRepo.GetPaymentByOrderID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to check existing payment", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrDuplicatePayment,
			fmt.Sprintf("order %d already has a payment", orderID))
	}

	if reference == "" {
		reference = "PAY-" + uuid.NewString()
	}
	if currency == "" {
		currency = "NGN"
	}

	payment := &model.Payment{
		OrderID:    orderID,
		Reference:  reference,
		AmountPaid: amount,
		Currency:   currency,
		Status:     model.PaymentStatusPending,
	}

	if err := s.paymentRepo.CreatePayment(payment); err != nil {
		// 并发创建时唯一索引兜底
		if errors.IsDuplicate(err) {
			return nil, errors.New(errors.ErrDuplicatePayment,
				fmt.Sprintf("order %d already has a payment", orderID))
		}
		return nil, errors.Wrap(errors.ErrDatabase, "failed to create payment", err)
	}

	return payment, nil
}

func (s *PaymentService) GetPaymentByOrderID(orderID int) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByOrderID(orderID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil {
		return nil, errors.New(errors.ErrNotFound, "payment not found")
	}
	return payment, nil
}

// WebhookResult 回调处理结果，返回给服务商的响应体由此组装
type WebhookResult struct {
	Event         string `json:"event"`
	Reference     string `json:"reference"`
	PaymentStatus string `json:"payment_status"`
	OrderStatus   string `json:"order_status,omitempty"`
}

// VerifyWebhook 处理支付服务商回调
//
// 顺序固定：缺头拒绝、时间戳容差、HMAC 签名、严格解析、查支付、
// 落原始报文、向服务商做权威验证、按结果更新支付。订单状态在此
// 不动，对账与发货各自独立推进。每次处理都追加审计记录。
func (s *PaymentService) VerifyWebhook(ctx context.Context, rawBody []byte, timestampHeader, signatureHeader string) (*WebhookResult, error) {
	if timestampHeader == "" || signatureHeader == "" {
		return nil, errors.New(errors.ErrUnauthorized, "missing signature headers")
	}

	ts, err := strconv.ParseInt(timestampHeader, 10, 64)
	if err != nil {
		return nil, errors.New(errors.ErrUnauthorized, "invalid timestamp header")
	}

	skew := time.Since(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > s.tolerance {
		util.Logger.Warn("回调时间戳超出容差",
			zap.Int64("timestamp", ts),
			zap.Duration("skew", skew))
		return nil, errors.New(errors.ErrUnauthorized, "timestamp outside tolerance")
	}

	if !util.VerifyWebhookSignature(s.secret, timestampHeader, rawBody, signatureHeader) {
		util.Logger.Warn("回调签名校验失败")
		return nil, errors.New(errors.ErrUnauthorized, "invalid signature")
	}

	// 重放只记录不拦截，每次回调都重新走完整验证
	if s.replay != nil && s.replay.MarkWebhookSeen(ctx, signatureHeader, 2*s.tolerance) {
		util.Logger.Warn("检测到回调重放", zap.String("signature", signatureHeader))
	}

	var event model.WebhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return nil, errors.New(errors.ErrBadRequest, "malformed webhook payload")
	}
	if event.Data.Reference == "" {
		return nil, errors.New(errors.ErrBadRequest, "webhook payload missing reference")
	}

	reference := event.Data.Reference
	util.Logger.Info("开始处理支付回调",
		zap.String("event", event.Event),
		zap.String("reference", reference))

	payment, err := s.paymentRepo.GetPaymentByReference(reference)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "failed to get payment", err)
	}
	if payment == nil {
		s.appendAudit(event.Event, reference, 0, "not_found")
		return nil, errors.New(errors.ErrNotFound, "payment not found for reference")
	}

	// 原始报文无论后续结果如何都要落库
	if err := s.paymentRepo.SaveRawResponse(payment.ID, string(rawBody)); err != nil {
		util.Logger.Error("落库原始回调失败",
			zap.Error(err),
			zap.Int("payment_id", payment.ID))
	}

	var result *provider.VerificationResult
	verifyErr := common.WithRetry(func() error {
		r, e := s.verifier.VerifyTransaction(ctx, reference)
		if e == nil {
			result = r
		}
		return e
	}, providerVerifyRetries)

	paymentStatus := model.PaymentStatusFailed
	if verifyErr != nil || !result.Success() {
		if verifyErr != nil {
			util.Logger.Error("服务商验证不可达，支付按失败处理",
				zap.Error(verifyErr),
				zap.String("reference", reference))
		}
		if err := s.paymentRepo.MarkPaymentFailed(reference); err != nil {
			s.appendAudit(event.Event, reference, payment.ID, "error")
			return nil, errors.Wrap(errors.ErrDatabase, "failed to mark payment failed", err)
		}
	} else {
		transactionID := result.TransactionID
		if transactionID == "" {
			transactionID = event.Data.TransactionID
		}
		if err := s.paymentRepo.MarkPaymentVerified(reference, transactionID, time.Now()); err != nil {
			s.appendAudit(event.Event, reference, payment.ID, "error")
			return nil, errors.Wrap(errors.ErrDatabase, "failed to mark payment verified", err)
		}
		paymentStatus = model.PaymentStatusSuccess
	}

	// 支付成功不推进订单状态，发货流程自行负责
	orderStatus := ""
	if order, err := s.orderRepo.GetOrderByID(payment.OrderID); err == nil && order != nil {
		orderStatus = order.Status
	}

	s.appendAudit(event.Event, reference, payment.ID, paymentStatus)

	util.Logger.Info("支付回调处理完成",
		zap.String("reference", reference),
		zap.String("payment_status", paymentStatus))

	return &WebhookResult{
		Event:         event.Event,
		Reference:     reference,
		PaymentStatus: paymentStatus,
		OrderStatus:   orderStatus,
	}, nil
}

func (s *PaymentService) appendAudit(event, reference string, paymentID int, status string) {
	if s.audit == nil {
		return
	}
	s.audit.Append(&auditlog.Entry{
		Timestamp: time.Now(),
		Event:     event,
		Reference: reference,
		PaymentID: paymentID,
		Status:    status,
	})
}
