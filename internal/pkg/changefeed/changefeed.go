package changefeed

import (
	"context"

	"github.com/0xredpill/site_go_server/internal/model"
)

// 事件类型
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event 评论行级变更事件
type Event struct {
	Type     string         `json:"type"`
	PostSlug string         `json:"post_slug"`
	Old      *model.Comment `json:"old,omitempty"`
	New      *model.Comment `json:"new,omitempty"`
}

// IsLikeOnlyUpdate 判断是否为仅点赞字段变化的更新。
// 内容、作者、父评论都未变时，订阅方可以做局部修补而非整表重载。
func (e *Event) IsLikeOnlyUpdate() bool {
	if e.Type != EventUpdate || e.Old == nil || e.New == nil {
		return false
	}
	if e.Old.Content != e.New.Content {
		return false
	}
	if e.Old.UserID != e.New.UserID {
		return false
	}
	if (e.Old.ParentID == nil) != (e.New.ParentID == nil) {
		return false
	}
	if e.Old.ParentID != nil && *e.Old.ParentID != *e.New.ParentID {
		return false
	}
	return true
}

// Handler 事件回调
type Handler func(Event)

// CancelFunc 取消订阅。返回后回调不会再被调用。
type CancelFunc func()

// Feed 行级变更推送通道。实现需按 post_slug 过滤事件，
// 且保证 CancelFunc 返回后不再调用 Handler。
type Feed interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(ctx context.Context, postSlug string, h Handler) (CancelFunc, error)
}
