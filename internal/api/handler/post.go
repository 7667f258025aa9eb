package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/0xredpill/site_go_server/internal/pkg/response"
	"github.com/0xredpill/site_go_server/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{
		postService: postService,
	}
}

// List 文章列表
// GET /api/v1/posts
func (h *PostHandler) List(c *gin.Context) {
	items, err := h.postService.List()
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Get 文章详情
// GET /api/v1/posts/:slug
func (h *PostHandler) Get(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		response.ParamError(c, "无效的文章标识")
		return
	}

	detail, err := h.postService.Get(slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPostNotFound):
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, detail)
}
