package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/0xredpill/site_go_server/internal/pkg/response"
	"github.com/0xredpill/site_go_server/internal/service"
)

type GalleryHandler struct {
	galleryService *service.GalleryService
}

func NewGalleryHandler(galleryService *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{
		galleryService: galleryService,
	}
}

// List 相册图片列表（按时间倒序）
// GET /api/v1/gallery
func (h *GalleryHandler) List(c *gin.Context) {
	images, err := h.galleryService.Images(c.Request.Context())
	if err != nil {
		response.ServerError(c, "获取相册失败")
		return
	}

	response.Success(c, images)
}
