package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(t *testing.T, handler gin.HandlerFunc) Response {
	t.Helper()

	router := gin.New()
	router.GET("/test", handler)

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	resp := perform(t, func(c *gin.Context) {
		Success(c, gin.H{"key": "value"})
	})

	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "value", data["key"])
}

func TestError_DefaultMessage(t *testing.T) {
	resp := perform(t, func(c *gin.Context) {
		Error(c, CodeResourceNotFound, "")
	})

	assert.Equal(t, CodeResourceNotFound, resp.Code)
	assert.Equal(t, "资源不存在", resp.Message)
}

func TestError_CustomMessage(t *testing.T) {
	resp := perform(t, func(c *gin.Context) {
		ParamError(c, "bad slug")
	})

	assert.Equal(t, CodeParamError, resp.Code)
	assert.Equal(t, "bad slug", resp.Message)
}

func TestPendingCommentError(t *testing.T) {
	resp := perform(t, func(c *gin.Context) {
		PendingCommentError(c, "")
	})

	assert.Equal(t, CodePendingComment, resp.Code)
	assert.Equal(t, "评论尚未提交完成", resp.Message)
}
