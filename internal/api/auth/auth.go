package auth

import (
	"github.com/D3stinn3/HC/internal/cache"
	"github.com/D3stinn3/HC/internal/errors"
	"github.com/D3stinn3/HC/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	store *cache.Store
}

func NewAuthHandler(store *cache.Store) *AuthHandler {
	return &AuthHandler{store}
}

// Logout 把当前令牌拉黑，TTL 取令牌剩余有效期
func (h *AuthHandler) Logout(c *gin.Context) {
	token, exists := c.Get("token")
	if !exists {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
		return
	}

	tokenString := token.(string)
	ttl := util.TokenRemainingLife(tokenString)

	if err := h.store.BlacklistToken(c.Request.Context(), tokenString, ttl); err != nil {
		util.Logger.Error("拉黑令牌失败", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "登出失败", err))
		return
	}

	errors.HandleSuccess(c, nil, "已登出")
}
