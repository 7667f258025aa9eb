package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/model"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
	"github.com/0xredpill/site_go_server/internal/repository"
	"github.com/0xredpill/site_go_server/internal/testutil"
)

func setupCommentService(t *testing.T) (*CommentService, *gorm.DB, *changefeed.MemoryFeed) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)
	feed := changefeed.NewMemoryFeed()

	service := NewCommentService(commentRepo, userRepo, feed, nil, &config.Config{})
	return service, db, feed
}

func TestCommentService_Create_Success(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db, testutil.WithUsername("commenter"))

	item, err := service.Create(context.Background(), user.ID, "hello-world", &dto.CreateCommentRequest{
		Content: "first!\nsecond line",
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "first!\nsecond line", item.Content)
	assert.Equal(t, "first!<br/>second line", item.ContentHTML)
	assert.NotNil(t, item.User)
	assert.Equal(t, "commenter", item.User.Username)
	assert.Empty(t, item.LikedBy)
	assert.Zero(t, item.LikesCount)
}

func TestCommentService_Create_Reply(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)
	parent := testutil.TestComment(t, db, user.ID, "hello-world")

	item, err := service.Create(context.Background(), user.ID, "hello-world", &dto.CreateCommentRequest{
		Content:  "a reply",
		ParentID: &parent.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, item.ParentID)
	assert.Equal(t, parent.ID, *item.ParentID)
}

func TestCommentService_Create_ReplyToReply_Flattened(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)
	parent := testutil.TestComment(t, db, user.ID, "hello-world")
	reply := testutil.TestReply(t, db, user.ID, parent)

	// 对回复的回复应挂到顶层评论下
	item, err := service.Create(context.Background(), user.ID, "hello-world", &dto.CreateCommentRequest{
		Content:  "nested",
		ParentID: &reply.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, item.ParentID)
	assert.Equal(t, parent.ID, *item.ParentID)
}

func TestCommentService_Create_ParentNotFound(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)
	missing := int64(99999)

	_, err := service.Create(context.Background(), user.ID, "hello-world", &dto.CreateCommentRequest{
		Content:  "reply",
		ParentID: &missing,
	})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestCommentService_Create_ParentNotInPost(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)
	parent := testutil.TestComment(t, db, user.ID, "post-a")

	_, err := service.Create(context.Background(), user.ID, "post-b", &dto.CreateCommentRequest{
		Content:  "reply",
		ParentID: &parent.ID,
	})
	assert.ErrorIs(t, err, ErrParentNotInPost)
}

func TestCommentService_Create_PublishesInsertEvent(t *testing.T) {
	service, db, feed := setupCommentService(t)

	user := testutil.TestUser(t, db)

	var events []changefeed.Event
	cancel, err := feed.Subscribe(context.Background(), "hello-world", func(e changefeed.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	defer cancel()

	_, err = service.Create(context.Background(), user.ID, "hello-world", &dto.CreateCommentRequest{
		Content: "hi",
	})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, changefeed.EventInsert, events[0].Type)
	assert.Equal(t, "hello-world", events[0].PostSlug)
	require.NotNil(t, events[0].New)
	assert.Equal(t, "hi", events[0].New.Content)
}

func TestCommentService_ListByPostSlug(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	c1 := testutil.TestComment(t, db, user.ID, "post-a", testutil.WithCreatedAt(base))
	c2 := testutil.TestComment(t, db, user.ID, "post-a", testutil.WithCreatedAt(base.Add(time.Hour)))
	// 回复乱序创建，展示时必须按时间正序
	r2 := testutil.TestReply(t, db, user.ID, c1, testutil.WithCreatedAt(base.Add(20*time.Minute)))
	r1 := testutil.TestReply(t, db, user.ID, c1, testutil.WithCreatedAt(base.Add(10*time.Minute)))

	items, topCount, replyCount, err := service.ListByPostSlug("post-a", repository.SortNewest)
	require.NoError(t, err)
	assert.Equal(t, 2, topCount)
	assert.Equal(t, 2, replyCount)

	require.Len(t, items, 2)
	assert.Equal(t, c2.ID, items[0].ID)
	assert.Equal(t, c1.ID, items[1].ID)

	require.Len(t, items[1].Replies, 2)
	assert.Equal(t, r1.ID, items[1].Replies[0].ID)
	assert.Equal(t, r2.ID, items[1].Replies[1].ID)

	// oldest 顶层反转，回复顺序不变
	items, _, _, err = service.ListByPostSlug("post-a", repository.SortOldest)
	require.NoError(t, err)
	assert.Equal(t, c1.ID, items[0].ID)
	require.Len(t, items[0].Replies, 2)
	assert.Equal(t, r1.ID, items[0].Replies[0].ID)
}

func TestCommentService_ListByPostSlug_Empty(t *testing.T) {
	service, _, _ := setupCommentService(t)

	items, topCount, replyCount, err := service.ListByPostSlug("no-comments", repository.SortNewest)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, topCount)
	assert.Zero(t, replyCount)
}

func TestCommentService_Delete_CascadesReplies(t *testing.T) {
	service, db, feed := setupCommentService(t)

	user := testutil.TestUser(t, db)
	parent := testutil.TestComment(t, db, user.ID, "post-a")
	testutil.TestReply(t, db, user.ID, parent)
	testutil.TestReply(t, db, user.ID, parent)

	var events []changefeed.Event
	cancel, err := feed.Subscribe(context.Background(), "post-a", func(e changefeed.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, service.Delete(context.Background(), user.ID, parent.ID))

	var count int64
	require.NoError(t, db.Model(&model.Comment{}).Where("post_slug = ?", "post-a").Count(&count).Error)
	assert.Zero(t, count)

	require.Len(t, events, 1)
	assert.Equal(t, changefeed.EventDelete, events[0].Type)
}

func TestCommentService_Delete_NotOwner(t *testing.T) {
	service, db, _ := setupCommentService(t)

	owner := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, owner.ID, "post-a")

	err := service.Delete(context.Background(), other.ID, comment.ID)
	assert.ErrorIs(t, err, ErrCommentPermission)

	// 评论仍然存在
	var count int64
	require.NoError(t, db.Model(&model.Comment{}).Where("id = ?", comment.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCommentService_Delete_NotFound_SameError(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)

	// 不存在的评论与无权限返回同一个错误，不暴露评论是否存在
	err := service.Delete(context.Background(), user.ID, 99999)
	assert.ErrorIs(t, err, ErrCommentPermission)
}

func TestCommentService_ToggleLike(t *testing.T) {
	service, db, _ := setupCommentService(t)

	author := testutil.TestUser(t, db)
	liker := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, author.ID, "post-a")

	resp, err := service.ToggleLike(context.Background(), liker.ID, comment.ID)
	require.NoError(t, err)
	assert.True(t, resp.Liked)
	assert.Equal(t, 1, resp.LikesCount)
	assert.Contains(t, resp.LikedBy, liker.ID)

	// likes_count 必须等于 liked_by 的长度
	assert.Equal(t, len(resp.LikedBy), resp.LikesCount)

	// 再次切换取消点赞，恢复原状
	resp, err = service.ToggleLike(context.Background(), liker.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, resp.Liked)
	assert.Zero(t, resp.LikesCount)
	assert.Empty(t, resp.LikedBy)

	got, err := repository.NewCommentRepository(db).GetByID(comment.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LikesCount)
	assert.Empty(t, got.LikedBy)
}

func TestCommentService_ToggleLike_MultipleUsers(t *testing.T) {
	service, db, _ := setupCommentService(t)

	author := testutil.TestUser(t, db)
	u1 := testutil.TestUser(t, db)
	u2 := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, author.ID, "post-a")

	_, err := service.ToggleLike(context.Background(), u1.ID, comment.ID)
	require.NoError(t, err)

	resp, err := service.ToggleLike(context.Background(), u2.ID, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.LikesCount)
	assert.Contains(t, resp.LikedBy, u1.ID)
	assert.Contains(t, resp.LikedBy, u2.ID)
	assert.Equal(t, len(resp.LikedBy), resp.LikesCount)
}

func TestCommentService_ToggleLike_PendingComment(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)

	_, err := service.ToggleLike(context.Background(), user.ID, 0)
	assert.ErrorIs(t, err, ErrCommentPending)

	_, err = service.ToggleLike(context.Background(), user.ID, -5)
	assert.ErrorIs(t, err, ErrCommentPending)
}

func TestCommentService_ToggleLike_NotFound(t *testing.T) {
	service, db, _ := setupCommentService(t)

	user := testutil.TestUser(t, db)

	_, err := service.ToggleLike(context.Background(), user.ID, 99999)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCommentService_ToggleLike_PublishesLikeOnlyUpdate(t *testing.T) {
	service, db, feed := setupCommentService(t)

	author := testutil.TestUser(t, db)
	liker := testutil.TestUser(t, db)
	comment := testutil.TestComment(t, db, author.ID, "post-a")

	var events []changefeed.Event
	cancel, err := feed.Subscribe(context.Background(), "post-a", func(e changefeed.Event) {
		events = append(events, e)
	})
	require.NoError(t, err)
	defer cancel()

	_, err = service.ToggleLike(context.Background(), liker.ID, comment.ID)
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, changefeed.EventUpdate, events[0].Type)
	assert.True(t, events[0].IsLikeOnlyUpdate())
	require.NotNil(t, events[0].New)
	assert.Equal(t, 1, events[0].New.LikesCount)
}
