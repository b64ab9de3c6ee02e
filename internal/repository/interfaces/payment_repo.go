package interfaces

import (
	"time"

	"github.com/D3stinn3/HC/internal/model"
)

type PaymentRepository interface {
	CreatePayment(payment *model.Payment) error
	GetPaymentByID(id int) (*model.Payment, error)
	GetPaymentByOrderID(orderID int) (*model.Payment, error)
	GetPaymentByReference(reference string) (*model.Payment, error)
	SaveRawResponse(paymentID int, raw string) error
	// MarkPaymentVerified 单条带保护的 UPDATE，verified_at 只在第一次成功时写入，
	// 重复回调会收敛到相同结果
	MarkPaymentVerified(reference string, transactionID string, verifiedAt time.Time) error
	MarkPaymentFailed(reference string) error

	CreateRefund(refund *model.Refund) error
	GetRefundByID(id int) (*model.Refund, error)
	GetRefundsByPayment(paymentID int) ([]*model.Refund, error)
	GetProcessedRefundTotal(paymentID int) (float64, error)
	MarkRefundFailed(refundID int) error
	// ApplyRefundProcessed 在同一事务内标记退款完成，并按需联动支付与订单状态
	ApplyRefundProcessed(refundID int, processedAt time.Time, markPaymentRefunded bool, orderChange *model.StatusChange) error
}
