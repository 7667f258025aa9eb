package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/0xredpill/site_go_server/internal/api/middleware"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/response"
	"github.com/0xredpill/site_go_server/internal/repository"
	"github.com/0xredpill/site_go_server/internal/service"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// List 获取文章的评论树
// GET /api/v1/posts/:slug/comments?order=newest|oldest
func (h *CommentHandler) List(c *gin.Context) {
	postSlug := c.Param("slug")
	if postSlug == "" {
		response.ParamError(c, "无效的文章标识")
		return
	}

	order := repository.SortNewest
	if c.DefaultQuery("order", "newest") == "oldest" {
		order = repository.SortOldest
	}

	items, topCount, replyCount, err := h.commentService.ListByPostSlug(postSlug, order)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, gin.H{
		"comments":    items,
		"top_count":   topCount,
		"reply_count": replyCount,
		"total":       topCount + replyCount,
	})
}

// Create 发表评论或回复
// POST /api/v1/posts/:slug/comments
func (h *CommentHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	postSlug := c.Param("slug")
	if postSlug == "" {
		response.ParamError(c, "无效的文章标识")
		return
	}

	var req dto.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), userID, postSlug, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrParentNotFound):
			response.NotFoundError(c, err.Error())
		case errors.Is(err, service.ErrParentNotInPost):
			response.ParamError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "评论成功", comment)
}

// Delete 删除评论（仅作者本人）
// DELETE /api/v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的评论ID")
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), userID, commentID); err != nil {
		switch {
		case errors.Is(err, service.ErrCommentPermission):
			response.PermissionError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

// ToggleLike 点赞/取消点赞
// POST /api/v1/comments/:id/like
func (h *CommentHandler) ToggleLike(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	commentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的评论ID")
		return
	}

	resp, err := h.commentService.ToggleLike(c.Request.Context(), userID, commentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCommentPending):
			response.PendingCommentError(c, err.Error())
		case errors.Is(err, service.ErrCommentNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, resp)
}
