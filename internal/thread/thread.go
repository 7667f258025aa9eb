// Package thread 维护单篇文章评论区的内存视图：
// 顶层评论列表（含各自的回复），随存储层变更事件增量或全量刷新。
package thread

import (
	"context"
	"errors"
	"sync"

	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
	"github.com/0xredpill/site_go_server/internal/repository"
)

var (
	ErrUnauthenticated = errors.New("未登录")
	ErrClosed          = errors.New("评论区已关闭")
	// ErrCommentPending 本地占位评论还没有服务端 ID，不能点赞或删除
	ErrCommentPending = errors.New("评论正在提交中，请稍后重试")
)

// State 视图状态
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

// Session 当前登录态，构造时显式注入
type Session struct {
	UserID        int64
	Authenticated bool
}

// Store 评论存储操作，由 service.CommentService 实现
type Store interface {
	ListByPostSlug(postSlug string, order repository.SortOrder) ([]*dto.CommentItem, int, int, error)
	Create(ctx context.Context, userID int64, postSlug string, req *dto.CreateCommentRequest) (*dto.CommentItem, error)
	Delete(ctx context.Context, userID, commentID int64) error
	ToggleLike(ctx context.Context, userID, commentID int64) (*dto.LikeToggleResponse, error)
}

// Thread 单篇文章的评论视图
type Thread struct {
	store    Store
	feed     changefeed.Feed
	session  Session
	postSlug string

	mu           sync.Mutex
	state        State
	sortOrder    repository.SortOrder
	comments     []*dto.CommentItem
	commentCount int
	replyCount   int
	cancel       changefeed.CancelFunc
	closed       bool
}

func New(store Store, feed changefeed.Feed, session Session, postSlug string) *Thread {
	return &Thread{
		store:     store,
		feed:      feed,
		session:   session,
		postSlug:  postSlug,
		state:     StateUninitialized,
		sortOrder: repository.SortNewest,
	}
}

// Open 订阅变更并执行首次加载
func (t *Thread) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.cancel != nil {
		t.mu.Unlock()
		return nil // 已打开
	}
	t.mu.Unlock()

	if t.feed != nil {
		cancel, err := t.feed.Subscribe(ctx, t.postSlug, func(event changefeed.Event) {
			t.handleEvent(ctx, event)
		})
		if err != nil {
			return err
		}

		t.mu.Lock()
		if t.closed {
			t.mu.Unlock()
			cancel()
			return ErrClosed
		}
		t.cancel = cancel
		t.mu.Unlock()
	}

	return t.reload(ctx)
}

// Close 取消订阅并冻结视图。之后所有事件被丢弃，操作返回 ErrClosed。
func (t *Thread) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	cancel := t.cancel
	t.cancel = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Submit 发表评论或回复。不做乐观插入，等存储层确认后全量刷新。
func (t *Thread) Submit(ctx context.Context, content string, parentID *int64) (*dto.CommentItem, error) {
	if !t.session.Authenticated {
		return nil, ErrUnauthenticated
	}
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	item, err := t.store.Create(ctx, t.session.UserID, t.postSlug, &dto.CreateCommentRequest{
		Content:  content,
		ParentID: parentID,
	})
	if err != nil {
		return nil, err
	}

	if err := t.reload(ctx); err != nil {
		return item, err
	}
	return item, nil
}

// Remove 删除自己的评论
func (t *Thread) Remove(ctx context.Context, commentID int64) error {
	if !t.session.Authenticated {
		return ErrUnauthenticated
	}
	if commentID <= 0 {
		return ErrCommentPending
	}
	if err := t.checkOpen(); err != nil {
		return err
	}

	if err := t.store.Delete(ctx, t.session.UserID, commentID); err != nil {
		return err
	}

	return t.reload(ctx)
}

// ToggleLike 点赞/取消点赞。成功后只修补对应节点，不做全量刷新。
func (t *Thread) ToggleLike(ctx context.Context, commentID int64) (*dto.LikeToggleResponse, error) {
	if !t.session.Authenticated {
		return nil, ErrUnauthenticated
	}
	if commentID <= 0 {
		return nil, ErrCommentPending
	}
	if err := t.checkOpen(); err != nil {
		return nil, err
	}

	resp, err := t.store.ToggleLike(ctx, t.session.UserID, commentID)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if !t.closed {
		t.patchLikes(commentID, resp.LikesCount, resp.LikedBy)
	}
	t.mu.Unlock()

	return resp, nil
}

// SetSortOrder 切换顶层排序。排序在存储层完成，必须全量刷新。
func (t *Thread) SetSortOrder(ctx context.Context, order repository.SortOrder) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.sortOrder == order {
		t.mu.Unlock()
		return nil
	}
	t.sortOrder = order
	t.mu.Unlock()

	return t.reload(ctx)
}

// State 当前视图状态
func (t *Thread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Comments 当前评论树快照
func (t *Thread) Comments() []*dto.CommentItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*dto.CommentItem, len(t.comments))
	copy(out, t.comments)
	return out
}

// Counts 顶层评论数与回复数
func (t *Thread) Counts() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commentCount, t.replyCount
}

// handleEvent 处理远端变更：仅点赞字段变化时局部修补，其余全量刷新
func (t *Thread) handleEvent(ctx context.Context, event changefeed.Event) {
	if event.IsLikeOnlyUpdate() && event.New != nil {
		t.mu.Lock()
		if !t.closed {
			t.patchLikes(event.New.ID, event.New.LikesCount, event.New.LikedBy)
		}
		t.mu.Unlock()
		return
	}

	// 结构性变更（插入/删除/内容更新）：全量刷新，避免树修补出错
	_ = t.reload(ctx)
}

// reload 全量刷新。失败时保持原有列表和状态不变。
func (t *Thread) reload(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	prev := t.state
	t.state = StateLoading
	order := t.sortOrder
	t.mu.Unlock()

	items, commentCount, replyCount, err := t.store.ListByPostSlug(t.postSlug, order)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if err != nil {
		t.state = prev
		return err
	}

	t.comments = items
	t.commentCount = commentCount
	t.replyCount = replyCount
	t.state = StateReady
	return nil
}

// patchLikes 在顶层或回复中定位评论，只替换点赞字段。调用方需持有 t.mu。
func (t *Thread) patchLikes(commentID int64, likesCount int, likedBy []int64) {
	for _, c := range t.comments {
		if c.ID == commentID {
			c.LikesCount = likesCount
			c.LikedBy = likedBy
			return
		}
		for _, r := range c.Replies {
			if r.ID == commentID {
				r.LikesCount = likesCount
				r.LikedBy = likedBy
				return
			}
		}
	}
}

func (t *Thread) checkOpen() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	return nil
}
