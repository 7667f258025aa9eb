package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/api/middleware"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
	"github.com/0xredpill/site_go_server/internal/pkg/response"
	"github.com/0xredpill/site_go_server/internal/repository"
	"github.com/0xredpill/site_go_server/internal/service"
	"github.com/0xredpill/site_go_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

// asUser 模拟认证中间件注入用户 ID
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func setupCommentHandler(t *testing.T) (*CommentHandler, *gorm.DB) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)
	feed := changefeed.NewMemoryFeed()

	commentService := service.NewCommentService(commentRepo, userRepo, feed, nil, &config.Config{})
	return NewCommentHandler(commentService), db
}

func TestCommentHandler_List_Success(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)
	parent := testutil.TestComment(t, db, user.ID, "hello-world")
	testutil.TestComment(t, db, user.ID, "hello-world")
	testutil.TestReply(t, db, user.ID, parent)

	router := gin.New()
	router.GET("/posts/:slug/comments", handler.List)

	req := httptest.NewRequest("GET", "/posts/hello-world/comments", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["top_count"])
	assert.Equal(t, float64(1), data["reply_count"])
	assert.Equal(t, float64(3), data["total"])
}

func TestCommentHandler_List_OldestOrder(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)
	testutil.TestComment(t, db, user.ID, "hello-world")

	router := gin.New()
	router.GET("/posts/:slug/comments", handler.List)

	req := httptest.NewRequest("GET", "/posts/hello-world/comments?order=oldest", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestCommentHandler_Create_Success(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db, testutil.WithUsername("poster"))

	router := gin.New()
	router.POST("/posts/:slug/comments", asUser(user.ID), handler.Create)

	body, _ := json.Marshal(dto.CreateCommentRequest{Content: "nice post"})
	req := httptest.NewRequest("POST", "/posts/hello-world/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "nice post", data["content"])
}

func TestCommentHandler_Create_Unauthenticated(t *testing.T) {
	handler, _ := setupCommentHandler(t)

	router := gin.New()
	router.POST("/posts/:slug/comments", handler.Create)

	body, _ := json.Marshal(dto.CreateCommentRequest{Content: "nice post"})
	req := httptest.NewRequest("POST", "/posts/hello-world/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestCommentHandler_Create_EmptyContent(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.POST("/posts/:slug/comments", asUser(user.ID), handler.Create)

	body, _ := json.Marshal(dto.CreateCommentRequest{Content: ""})
	req := httptest.NewRequest("POST", "/posts/hello-world/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestCommentHandler_Create_ParentNotFound(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)
	missing := int64(99999)

	router := gin.New()
	router.POST("/posts/:slug/comments", asUser(user.ID), handler.Create)

	body, _ := json.Marshal(dto.CreateCommentRequest{Content: "reply", ParentID: &missing})
	req := httptest.NewRequest("POST", "/posts/hello-world/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}

func TestCommentHandler_Delete_Success(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, user.ID, "hello-world")

	router := gin.New()
	router.DELETE("/comments/:id", asUser(user.ID), handler.Delete)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/comments/%d", comment.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestCommentHandler_Delete_NotOwner(t *testing.T) {
	handler, db := setupCommentHandler(t)

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, owner.ID, "hello-world")

	router := gin.New()
	router.DELETE("/comments/:id", asUser(other.ID), handler.Delete)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/comments/%d", comment.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePermissionDenied, resp.Code)
}

func TestCommentHandler_Delete_InvalidID(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.DELETE("/comments/:id", asUser(user.ID), handler.Delete)

	req := httptest.NewRequest("DELETE", "/comments/not-a-number", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestCommentHandler_ToggleLike_Success(t *testing.T) {
	handler, db := setupCommentHandler(t)

	author := testutil.TestUser(t, db)
	liker := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, author.ID, "hello-world")

	router := gin.New()
	router.POST("/comments/:id/like", asUser(liker.ID), handler.ToggleLike)

	req := httptest.NewRequest("POST", fmt.Sprintf("/comments/%d/like", comment.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["liked"])
	assert.Equal(t, float64(1), data["likes_count"])
}

func TestCommentHandler_ToggleLike_PendingComment(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.POST("/comments/:id/like", asUser(user.ID), handler.ToggleLike)

	req := httptest.NewRequest("POST", "/comments/0/like", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodePendingComment, resp.Code)
}

func TestCommentHandler_ToggleLike_NotFound(t *testing.T) {
	handler, db := setupCommentHandler(t)

	user := testutil.TestUser(t, db)

	router := gin.New()
	router.POST("/comments/:id/like", asUser(user.ID), handler.ToggleLike)

	req := httptest.NewRequest("POST", "/comments/99999/like", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeResourceNotFound, resp.Code)
}
