package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/D3stinn3/HC/internal/common"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/stretchr/testify/assert"
)

func TestVerifyTransaction(t *testing.T) {
	util.InitLogger("error")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify/PAY-abc", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"data":{"reference":"PAY-abc","id":"TXN-9","status":"success"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", 5*time.Second)
	result, err := client.VerifyTransaction(context.Background(), "PAY-abc")

	assert.NoError(t, err)
	assert.Equal(t, "PAY-abc", result.Reference)
	assert.Equal(t, "TXN-9", result.TransactionID)
	assert.True(t, result.Success())
	assert.Contains(t, result.Raw, "TXN-9")
}

func TestVerifyTransactionFailedStatus(t *testing.T) {
	util.InitLogger("error")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"data":{"reference":"PAY-abc","id":"TXN-9","status":"failed"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", 5*time.Second)
	result, err := client.VerifyTransaction(context.Background(), "PAY-abc")

	assert.NoError(t, err)
	assert.False(t, result.Success())
}

func TestVerifyTransactionNon200(t *testing.T) {
	util.InitLogger("error")

	status := http.StatusServiceUnavailable
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test", 5*time.Second)

	// 5xx 是服务商临时故障，上层允许重试
	_, err := client.VerifyTransaction(context.Background(), "PAY-abc")
	assert.Error(t, err)
	assert.True(t, common.IsRetryable(err))

	// 4xx 重试也不会变好
	status = http.StatusNotFound
	_, err = client.VerifyTransaction(context.Background(), "PAY-abc")
	assert.Error(t, err)
	assert.False(t, common.IsRetryable(err))
}

func TestVerifyTransactionTimeout(t *testing.T) {
	util.InitLogger("error")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	// 超时必须有界，不能把回调处理挂起
	client := NewClient(srv.URL, "sk_test", 50*time.Millisecond)
	_, err := client.VerifyTransaction(context.Background(), "PAY-abc")

	assert.Error(t, err)
	assert.True(t, common.IsRetryable(err))
}
