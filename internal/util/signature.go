package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeWebhookSignature 计算回调签名
// 签名内容为 "{timestamp}.{rawBody}"，算法为 HMAC-SHA256，输出十六进制
func ComputeWebhookSignature(secret string, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature 校验回调签名，使用恒定时间比较防止时序侧信道
func VerifyWebhookSignature(secret string, timestamp string, body []byte, signature string) bool {
	expected := ComputeWebhookSignature(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}
