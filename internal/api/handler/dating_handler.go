package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/pkg/response"
)

type swipeRequest struct {
	TargetID  string `json:"target_id" binding:"required"`
	Direction string `json:"direction" binding:"required,swipe_direction"`
}

// Swipe 滑动：双方互相 LIKE 时返回新匹配
// @Summary 滑动
// @Tags 约会
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body swipeRequest true "LIKE 或 PASS"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /dating/swipes [post]
func (h *Handler) Swipe(c *gin.Context) {
	var req swipeRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.relService.Swipe(c.Request.Context(), currentAccount(c), req.TargetID, model.SwipeDirection(req.Direction))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"matched": m != nil, "match": m})
}

// GetSwipe 我对某人的滑动记录
// @Summary 查询滑动
// @Tags 约会
// @Security BearerAuth
// @Param target_id path string true "对方ID"
// @Success 200 {object} response.Response{data=model.Swipe}
// @Failure 404 {object} response.Response
// @Router /dating/swipes/{target_id} [get]
func (h *Handler) GetSwipe(c *gin.Context) {
	s, err := h.relService.GetSwipe(c.Request.Context(), currentAccount(c), c.Param("target_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, s)
}

// ListMatches 当前有效的匹配
// @Summary 匹配列表
// @Tags 约会
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /dating/matches [get]
func (h *Handler) ListMatches(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListMatches(c.Request.Context(), currentAccount(c), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// Unmatch 解除匹配
// @Summary 解除匹配
// @Tags 约会
// @Security BearerAuth
// @Param id path string true "匹配ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /dating/matches/{id} [delete]
func (h *Handler) Unmatch(c *gin.Context) {
	if err := h.relService.Unmatch(c.Request.Context(), currentAccount(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}
