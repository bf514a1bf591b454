package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Privacy  string `json:"privacy" binding:"omitempty,privacy"`
}

type privacyRequest struct {
	Privacy string `json:"privacy" binding:"required,privacy"`
}

// Register 创建账号（不签发 token）
// @Summary 创建账号
// @Tags 账号
// @Accept json
// @Produce json
// @Param request body registerRequest true "账号信息"
// @Success 201 {object} response.Response{data=model.Account}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /accounts [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	acc, err := h.relService.RegisterAccount(c.Request.Context(), req.Username, model.PrivacyMode(req.Privacy))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Created(c, acc)
}

// Me 当前登录账号
// @Summary 当前账号
// @Tags 账号
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]string}
// @Router /accounts/me [get]
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, gin.H{"account_id": currentAccount(c)})
}

// SetPrivacy 切换公开/私密
// @Summary 设置隐私模式
// @Tags 账号
// @Accept json
// @Security BearerAuth
// @Param request body privacyRequest true "public 或 gated"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /accounts/me/privacy [put]
func (h *Handler) SetPrivacy(c *gin.Context) {
	var req privacyRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.relService.SetPrivacy(c.Request.Context(), currentAccount(c), model.PrivacyMode(req.Privacy)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}
