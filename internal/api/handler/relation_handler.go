package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/relation-engine/pkg/response"
)

type targetRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

// Follow 关注用户：公开账号直接生效，私密账号生成待审批申请
// @Summary 关注用户
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body targetRequest true "被关注者"
// @Success 200 {object} response.Response{data=map[string]string}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /relations/follow [post]
func (h *Handler) Follow(c *gin.Context) {
	var req targetRequest
	if !bindJSON(c, &req) {
		return
	}
	out, err := h.relService.ProposeFollow(c.Request.Context(), currentAccount(c), req.TargetID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"outcome": out})
}

// Unfollow 取消关注
// @Summary 取消关注
// @Tags 关系链
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body targetRequest true "被取消关注者"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /relations/unfollow [post]
func (h *Handler) Unfollow(c *gin.Context) {
	var req targetRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.relService.Unfollow(c.Request.Context(), currentAccount(c), req.TargetID); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveFollower 移除粉丝
// @Summary 移除粉丝
// @Tags 关系链
// @Security BearerAuth
// @Param user_id path string true "粉丝ID"
// @Success 200 {object} response.Response
// @Router /relations/followers/{user_id} [delete]
func (h *Handler) RemoveFollower(c *gin.Context) {
	if err := h.relService.RemoveFollower(c.Request.Context(), currentAccount(c), c.Param("user_id")); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// ListFollowing 查询某用户关注的人
// @Summary 查询关注列表
// @Tags 关系链
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /relations/{user_id}/following [get]
func (h *Handler) ListFollowing(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFollowing(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListFans 查询某用户的粉丝
// @Summary 查询粉丝列表
// @Tags 关系链
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /relations/{user_id}/fans [get]
func (h *Handler) ListFans(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListFans(c.Request.Context(), c.Param("user_id"), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// Counts 关注数与粉丝数（带缓存）
// @Summary 关注数/粉丝数
// @Tags 关系链
// @Security BearerAuth
// @Param user_id path string true "用户ID"
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /relations/{user_id}/counts [get]
func (h *Handler) Counts(c *gin.Context) {
	ctx, userID := c.Request.Context(), c.Param("user_id")
	followers, err := h.relService.FollowerCount(ctx, userID)
	if err != nil {
		renderError(c, err)
		return
	}
	following, err := h.relService.FollowingCount(ctx, userID)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"followers": followers, "following": following})
}

// Status 当前用户与目标用户的关系
// @Summary 关系状态
// @Tags 关系链
// @Security BearerAuth
// @Param user_id path string true "目标用户ID"
// @Success 200 {object} response.Response{data=service.RelationshipStatus}
// @Failure 404 {object} response.Response
// @Router /relations/{user_id}/status [get]
func (h *Handler) Status(c *gin.Context) {
	st, err := h.relService.RelationshipStatus(c.Request.Context(), currentAccount(c), c.Param("user_id"))
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, st)
}

// ListIncomingRequests 待我审批的关注申请
// @Summary 收到的关注申请
// @Tags 关注申请
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /follow-requests/incoming [get]
func (h *Handler) ListIncomingRequests(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListIncomingRequests(c.Request.Context(), currentAccount(c), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListOutgoingRequests 我发出的待审批申请
// @Summary 发出的关注申请
// @Tags 关注申请
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /follow-requests/outgoing [get]
func (h *Handler) ListOutgoingRequests(c *gin.Context) {
	page, pageSize := pageParams(c)
	list, err := h.relService.ListOutgoingRequests(c.Request.Context(), currentAccount(c), page, pageSize)
	if err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ApproveRequest 通过关注申请
// @Summary 通过关注申请
// @Tags 关注申请
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /follow-requests/{id}/approve [post]
func (h *Handler) ApproveRequest(c *gin.Context) {
	if err := h.relService.Approve(c.Request.Context(), c.Param("id"), currentAccount(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// RejectRequest 拒绝关注申请
// @Summary 拒绝关注申请
// @Tags 关注申请
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /follow-requests/{id}/reject [post]
func (h *Handler) RejectRequest(c *gin.Context) {
	if err := h.relService.Reject(c.Request.Context(), c.Param("id"), currentAccount(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}

// CancelRequest 撤回自己发出的申请
// @Summary 撤回关注申请
// @Tags 关注申请
// @Security BearerAuth
// @Param id path string true "申请ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /follow-requests/{id}/cancel [post]
func (h *Handler) CancelRequest(c *gin.Context) {
	if err := h.relService.CancelRequest(c.Request.Context(), c.Param("id"), currentAccount(c)); err != nil {
		renderError(c, err)
		return
	}
	response.Success(c, nil)
}
