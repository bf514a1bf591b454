package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/relation-engine/internal/model"
	"github.com/d60-Lab/relation-engine/pkg/response"
)

// ListNotifications 通知列表
// @Summary 通知列表
// @Tags 通知
// @Security BearerAuth
// @Param unread query bool false "只看未读"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	page, pageSize := pageParams(c)
	unread := c.Query("unread") == "true"
	list, err := h.relService.Notifications().List(c.Request.Context(), currentAccount(c), unread, page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// UnreadCount 未读数
// @Summary 未读通知数
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	n, err := h.relService.Notifications().UnreadCount(c.Request.Context(), currentAccount(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"unread": n})
}

// MarkRead 标记已读
// @Summary 标记通知已读
// @Tags 通知
// @Security BearerAuth
// @Param id path string true "通知ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	if err := h.relService.Notifications().MarkRead(c.Request.Context(), currentAccount(c), c.Param("id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// MarkAllRead 全部已读
// @Summary 全部标记已读
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	n, err := h.relService.Notifications().MarkAllRead(c.Request.Context(), currentAccount(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// GetPreferences 通知偏好（首次访问时按默认值创建）
// @Summary 查询通知偏好
// @Tags 通知
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.NotificationPreference}
// @Router /notifications/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	p, err := h.relService.Notifications().Preferences(c.Request.Context(), currentAccount(c))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}

// UpdatePreferences 部分更新通知偏好
// @Summary 更新通知偏好
// @Tags 通知
// @Accept json
// @Security BearerAuth
// @Param request body model.PreferencePatch true "只需传要修改的开关"
// @Success 200 {object} response.Response{data=model.NotificationPreference}
// @Router /notifications/preferences [put]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	var patch model.PreferencePatch
	if !bindJSON(c, &patch) {
		return
	}
	p, err := h.relService.Notifications().UpdatePreferences(c.Request.Context(), currentAccount(c), patch)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, p)
}
