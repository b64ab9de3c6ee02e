package payment

import (
	"io"
	"net/http"
	"strconv"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/service"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 回调签名头
const (
	HeaderTimestamp = "X-Internal-Timestamp"
	HeaderSignature = "X-Internal-Signature"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	var input struct {
		Amount    float64 `json:"amount" binding:"required,positive_amount"`
		Currency  string  `json:"currency"`
		Reference string  `json:"reference"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	payment, err := h.paymentService.CreatePayment(orderID, input.Reference, input.Amount, input.Currency)
	if err != nil {
		util.Logger.Error("创建支付失败",
			zap.Error(err),
			zap.Int("order_id", orderID))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, payment, "支付记录创建成功")
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid order ID"))
		return
	}

	payment, err := h.paymentService.GetPaymentByOrderID(orderID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, payment, "")
}

// Webhook 支付服务商回调入口，不走认证中间件
// 身份由 HMAC 签名头保证，响应体告知服务商处理结果
func (h *PaymentHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "unable to read request body",
		})
		return
	}

	result, err := h.paymentService.VerifyWebhook(
		c.Request.Context(),
		rawBody,
		c.GetHeader(HeaderTimestamp),
		c.GetHeader(HeaderSignature),
	)
	if err != nil {
		util.Logger.Warn("回调处理未通过",
			zap.Error(err),
			zap.String("ip", c.ClientIP()))
		c.JSON(errors.StatusOf(errors.CodeOf(err)), gin.H{
			"success": false,
			"message": "webhook rejected",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "webhook processed",
		"payment_status": result.PaymentStatus,
		"order_status":   result.OrderStatus,
	})
}
