package model

import "time"

// 支付状态枚举
const (
	PaymentStatusPending  = "pending"
	PaymentStatusSuccess  = "success"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// 退款状态枚举
const (
	RefundStatusPending   = "pending"
	RefundStatusProcessed = "processed"
	RefundStatusFailed    = "failed"
)

// Payment 支付模型，每个订单最多一条支付记录
type Payment struct {
	ID            int        `json:"id"`
	OrderID       int        `json:"order_id"`
	Reference     string     `json:"reference"`      // 对外唯一引用
	TransactionID *string    `json:"transaction_id"` // 验证成功前为空
	AmountPaid    float64    `json:"amount_paid"`
	Currency      string     `json:"currency"`
	Status        string     `json:"status"`
	RawResponse   string     `json:"-"` // 服务商原始回调，仅作审计
	VerifiedAt    *time.Time `json:"verified_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Refund 退款模型
// 不变量：同一支付下 processed 退款金额合计不得超过 amount_paid
type Refund struct {
	ID          int        `json:"id"`
	OrderID     int        `json:"order_id"`
	PaymentID   int        `json:"payment_id"`
	Amount      float64    `json:"amount"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// WebhookEvent 支付服务商回调的请求体
// 严格校验：缺少 data.reference 一律拒绝，不做默认值兜底
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

type WebhookData struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"id"`
	Status        string `json:"status"`
}
