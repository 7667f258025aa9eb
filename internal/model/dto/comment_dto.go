package dto

// CreateCommentRequest 创建评论请求
type CreateCommentRequest struct {
	Content  string `json:"content" binding:"required,min=1"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// CommentItem 评论项
type CommentItem struct {
	ID          int64          `json:"id"`
	User        *CommentUser   `json:"user"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"content_html"`
	ParentID    *int64         `json:"parent_id"`
	LikesCount  int            `json:"likes_count"`
	LikedBy     []int64        `json:"liked_by"`
	Replies     []*CommentItem `json:"replies,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

// CommentUser 评论用户信息（profiles 投影）
type CommentUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// LikeToggleResponse 点赞切换结果
type LikeToggleResponse struct {
	Liked      bool    `json:"liked"`
	LikesCount int     `json:"likes_count"`
	LikedBy    []int64 `json:"liked_by"`
}
