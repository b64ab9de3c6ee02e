package payment

import (
	"fmt"
	"strconv"

	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/service"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RefundHandler struct {
	refundService *service.RefundService
}

func NewRefundHandler(refundService *service.RefundService) *RefundHandler {
	return &RefundHandler{refundService}
}

func (h *RefundHandler) CreateRefund(c *gin.Context) {
	paymentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid payment ID"))
		return
	}

	var input struct {
		Amount float64 `json:"amount" binding:"required,positive_amount"`
		Reason string  `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	refund, err := h.refundService.CreateRefund(paymentID, input.Amount, input.Reason)
	if err != nil {
		util.Logger.Error("创建退款失败",
			zap.Error(err),
			zap.Int("payment_id", paymentID))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, refund, "退款已创建")
}

func (h *RefundHandler) SetRefundStatus(c *gin.Context) {
	refundID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid refund ID"))
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrBadRequest, "Invalid input data", err))
		return
	}

	userID, _ := c.Get("user_id")
	actor := fmt.Sprintf("staff:%d", userID)

	if err := h.refundService.SetRefundStatus(refundID, input.Status, actor); err != nil {
		util.Logger.Error("更新退款状态失败",
			zap.Error(err),
			zap.Int("refund_id", refundID),
			zap.String("status", input.Status))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"refund_id": refundID, "status": input.Status}, "退款状态已更新")
}

func (h *RefundHandler) GetRefund(c *gin.Context) {
	refundID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid refund ID"))
		return
	}

	refund, err := h.refundService.GetRefundByID(refundID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, refund, "")
}

func (h *RefundHandler) ListRefundsByPayment(c *gin.Context) {
	paymentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrBadRequest, "Invalid payment ID"))
		return
	}

	refunds, err := h.refundService.GetRefundsByPayment(paymentID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, refunds, "")
}
