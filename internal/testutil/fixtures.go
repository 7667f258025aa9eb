package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/internal/model"
)

var fixtureSeq int64

func nextSeq() int64 {
	fixtureSeq++
	return fixtureSeq
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	seq := nextSeq()
	email := fmt.Sprintf("test_%d_%d@example.com", time.Now().UnixNano(), seq)
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d_%d", time.Now().UnixNano()%100000, seq),
		Email:        &email,
		PasswordHash: &passwordHash,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithFullName 设置显示名
func WithFullName(fullName string) func(*model.User) {
	return func(u *model.User) {
		u.FullName = fullName
	}
}

// WithGithubID 设置 GitHub 绑定
func WithGithubID(githubID string) func(*model.User) {
	return func(u *model.User) {
		u.GithubID = &githubID
	}
}

// TestComment 创建测试评论（顶层）
func TestComment(t *testing.T, db *gorm.DB, userID int64, postSlug string, opts ...func(*model.Comment)) *model.Comment {
	t.Helper()

	comment := &model.Comment{
		UserID:   userID,
		PostSlug: postSlug,
		Content:  fmt.Sprintf("Test comment %d", nextSeq()),
		LikedBy:  model.Int64Set{},
	}

	for _, opt := range opts {
		opt(comment)
	}

	if err := db.Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}

	return comment
}

// TestReply 创建测试回复
func TestReply(t *testing.T, db *gorm.DB, userID int64, parent *model.Comment, opts ...func(*model.Comment)) *model.Comment {
	t.Helper()

	opts = append([]func(*model.Comment){func(c *model.Comment) {
		c.ParentID = &parent.ID
		c.PostSlug = parent.PostSlug
	}}, opts...)

	return TestComment(t, db, userID, parent.PostSlug, opts...)
}

// WithContent 设置评论内容
func WithContent(content string) func(*model.Comment) {
	return func(c *model.Comment) {
		c.Content = content
	}
}

// WithLikes 设置点赞集合
func WithLikes(userIDs ...int64) func(*model.Comment) {
	return func(c *model.Comment) {
		c.LikedBy = model.Int64Set(userIDs)
		c.LikesCount = len(userIDs)
	}
}

// WithCreatedAt 设置创建时间
func WithCreatedAt(at time.Time) func(*model.Comment) {
	return func(c *model.Comment) {
		c.CreatedAt = at
	}
}
