package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/0xredpill/site_go_server/config"
	"github.com/0xredpill/site_go_server/internal/model"
	"github.com/0xredpill/site_go_server/internal/model/dto"
	"github.com/0xredpill/site_go_server/internal/pkg/changefeed"
	"github.com/0xredpill/site_go_server/internal/pkg/markdown"
	"github.com/0xredpill/site_go_server/internal/pkg/queue"
	"github.com/0xredpill/site_go_server/internal/repository"
)

var (
	ErrCommentNotFound = errors.New("评论不存在")
	// ErrCommentPermission 同时覆盖"评论不存在"和"不属于该用户"两种删除失败，
	// 不向调用方区分，避免暴露评论是否存在
	ErrCommentPermission = errors.New("无权操作此评论")
	ErrParentNotFound    = errors.New("父评论不存在")
	ErrParentNotInPost   = errors.New("父评论不属于该文章")
	// ErrCommentPending 客户端本地占位评论（尚未拿到服务端 ID）不能点赞
	ErrCommentPending = errors.New("评论正在提交中，请稍后再点赞")
)

type CommentService struct {
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	feed        changefeed.Feed
	notifyQueue *queue.Queue // 可为 nil（未配置通知）
	cfg         *config.Config
}

func NewCommentService(
	commentRepo *repository.CommentRepository,
	userRepo *repository.UserRepository,
	feed changefeed.Feed,
	notifyQueue *queue.Queue,
	cfg *config.Config,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		userRepo:    userRepo,
		feed:        feed,
		notifyQueue: notifyQueue,
		cfg:         cfg,
	}
}

// ListByPostSlug 获取文章的评论树。顶层按 order 排序，回复始终按时间正序。
// 返回评论列表、顶层评论数、回复数。
func (s *CommentService) ListByPostSlug(postSlug string, order repository.SortOrder) ([]*dto.CommentItem, int, int, error) {
	comments, err := s.commentRepo.ListTopLevel(postSlug, order)
	if err != nil {
		return nil, 0, 0, err
	}

	if len(comments) == 0 {
		return []*dto.CommentItem{}, 0, 0, nil
	}

	parentIDs := make([]int64, len(comments))
	for i, c := range comments {
		parentIDs[i] = c.ID
	}

	replies, err := s.commentRepo.ListRepliesByParentIDs(parentIDs)
	if err != nil {
		return nil, 0, 0, err
	}

	repliesMap := make(map[int64][]*model.Comment)
	for _, r := range replies {
		if r.ParentID != nil {
			repliesMap[*r.ParentID] = append(repliesMap[*r.ParentID], r)
		}
	}

	items := make([]*dto.CommentItem, len(comments))
	replyCount := 0
	for i, c := range comments {
		items[i] = buildCommentItem(c)

		if childReplies, ok := repliesMap[c.ID]; ok {
			items[i].Replies = make([]*dto.CommentItem, len(childReplies))
			for j, r := range childReplies {
				items[i].Replies[j] = buildCommentItem(r)
			}
			replyCount += len(childReplies)
		}
	}

	return items, len(comments), replyCount, nil
}

// Create 创建评论或回复
func (s *CommentService) Create(ctx context.Context, userID int64, postSlug string, req *dto.CreateCommentRequest) (*dto.CommentItem, error) {
	// 如果是回复，验证父评论
	if req.ParentID != nil {
		parent, err := s.commentRepo.GetByID(*req.ParentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, err
		}

		if parent.PostSlug != postSlug {
			return nil, ErrParentNotInPost
		}

		// 只支持一级回复：对回复的回复挂到顶层评论下
		if parent.ParentID != nil {
			req.ParentID = parent.ParentID
		}
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	comment := &model.Comment{
		UserID:   userID,
		PostSlug: postSlug,
		ParentID: req.ParentID,
		Content:  req.Content,
		LikedBy:  model.Int64Set{},
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, err
	}
	comment.User = user

	s.publish(ctx, changefeed.Event{
		Type:     changefeed.EventInsert,
		PostSlug: postSlug,
		New:      comment,
	})
	s.enqueueNotify(ctx, comment, user)

	return buildCommentItem(comment), nil
}

// Delete 删除评论。只有作者本人能删除；评论不存在和无权限不作区分。
// 删除顶层评论时其回复一并删除。
func (s *CommentService) Delete(ctx context.Context, userID, commentID int64) error {
	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentPermission
		}
		return err
	}

	deleted, err := s.commentRepo.DeleteOwned(commentID, userID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrCommentPermission
	}

	if comment.ParentID == nil {
		if _, err := s.commentRepo.DeleteByParentID(commentID); err != nil {
			log.Printf("Failed to delete replies of comment %d: %v", commentID, err)
		}
	}

	s.publish(ctx, changefeed.Event{
		Type:     changefeed.EventDelete,
		PostSlug: comment.PostSlug,
		Old:      comment,
	})

	return nil
}

// ToggleLike 点赞/取消点赞。
// 读取当前 liked_by，切换成员关系后把整个集合和计数一次写回，仅以 id 为条件。
// 这是"最后写入者胜"语义：两个用户并发切换时后写的会覆盖先写的集合。
func (s *CommentService) ToggleLike(ctx context.Context, userID, commentID int64) (*dto.LikeToggleResponse, error) {
	if commentID <= 0 {
		return nil, ErrCommentPending
	}

	comment, err := s.commentRepo.GetByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}

	old := *comment

	liked := !comment.LikedBy.Contains(userID)
	if liked {
		comment.LikedBy = comment.LikedBy.Add(userID)
	} else {
		comment.LikedBy = comment.LikedBy.Remove(userID)
	}
	comment.LikesCount = len(comment.LikedBy)

	if err := s.commentRepo.UpdateLikes(commentID, comment.LikesCount, comment.LikedBy); err != nil {
		return nil, err
	}

	s.publish(ctx, changefeed.Event{
		Type:     changefeed.EventUpdate,
		PostSlug: comment.PostSlug,
		Old:      &old,
		New:      comment,
	})

	return &dto.LikeToggleResponse{
		Liked:      liked,
		LikesCount: comment.LikesCount,
		LikedBy:    comment.LikedBy,
	}, nil
}

func (s *CommentService) publish(ctx context.Context, event changefeed.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		log.Printf("Failed to publish %s event for post %s: %v", event.Type, event.PostSlug, err)
	}
}

func (s *CommentService) enqueueNotify(ctx context.Context, comment *model.Comment, user *model.User) {
	if s.notifyQueue == nil {
		return
	}

	msg := &queue.NotifyMessage{
		CommentID:  comment.ID,
		PostSlug:   comment.PostSlug,
		AuthorName: user.DisplayName(),
		Content:    comment.Content,
		ParentID:   comment.ParentID,
		CreatedAt:  comment.CreatedAt.Format(time.RFC3339),
	}
	if err := s.notifyQueue.Push(ctx, msg); err != nil {
		log.Printf("Failed to enqueue comment notification: %v", err)
	}
}

func buildCommentItem(c *model.Comment) *dto.CommentItem {
	item := &dto.CommentItem{
		ID:          c.ID,
		ParentID:    c.ParentID,
		Content:     c.Content,
		ContentHTML: markdown.CommentHTML(c.Content),
		LikesCount:  c.LikesCount,
		LikedBy:     c.LikedBy,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
	if item.LikedBy == nil {
		item.LikedBy = []int64{}
	}

	if c.User != nil {
		item.User = &dto.CommentUser{
			ID:        c.User.ID,
			Username:  c.User.Username,
			FullName:  c.User.FullName,
			AvatarURL: c.User.AvatarURL,
		}
	}

	return item
}
