package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/D3stinn3/HC/internal/util"
	"go.uber.org/zap"
)

// Verifier 向支付服务商做权威校验
// 回调内容只是触发器，最终以服务商查询接口的结果为准
type Verifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*VerificationResult, error)
}

// VerificationResult 服务商对某个引用的权威状态
type VerificationResult struct {
	Reference     string `json:"reference"`
	TransactionID string `json:"id"`
	Status        string `json:"status"`
	Raw           string `json:"-"`
}

// Success 判断服务商是否确认该笔交易成功
func (r *VerificationResult) Success() bool {
	return r.Status == "success"
}

// transientError 标记临时性故障，common.IsRetryable 据此决定重试
type transientError struct {
	msg string
}

func (e *transientError) Error() string   { return e.msg }
func (e *transientError) Temporary() bool { return true }

type Client struct {
	BaseURL   string
	SecretKey string
	HTTP      *http.Client
}

// NewClient 创建服务商客户端，超时必须有界，避免回调处理被挂起
func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*VerificationResult, error) {
	url := fmt.Sprintf("%s/verify/%s", c.BaseURL, reference)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		util.Logger.Error("调用服务商验证接口失败",
			zap.Error(err),
			zap.String("reference", reference))
		return nil, fmt.Errorf("provider verification request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read verification response: %w", err)
	}

	// 非 200 一律按验证失败处理，5xx 属于服务商临时故障，可重试
	if resp.StatusCode != http.StatusOK {
		util.Logger.Warn("服务商验证接口返回非200",
			zap.Int("status_code", resp.StatusCode),
			zap.String("reference", reference))
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &transientError{fmt.Sprintf("provider returned status %d", resp.StatusCode)}
		}
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status bool               `json:"status"`
		Data   VerificationResult `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode verification response: %w", err)
	}

	result := payload.Data
	result.Raw = string(body)

	util.Logger.Info("服务商验证完成",
		zap.String("reference", reference),
		zap.String("status", result.Status))
	return &result, nil
}
