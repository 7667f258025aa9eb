package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Int64Set 以 JSON 数组形式存储的用户 ID 集合（liked_by 列）
type Int64Set []int64

// Value 实现 driver.Valuer
func (s Int64Set) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]int64(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (s *Int64Set) Scan(value interface{}) error {
	if value == nil {
		*s = Int64Set{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for Int64Set")
	}

	if len(data) == 0 {
		*s = Int64Set{}
		return nil
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = ids
	return nil
}

// Contains 判断用户是否在集合中
func (s Int64Set) Contains(id int64) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Add 加入用户（已存在则不变）
func (s Int64Set) Add(id int64) Int64Set {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

// Remove 移除用户（不存在则不变）
func (s Int64Set) Remove(id int64) Int64Set {
	out := make(Int64Set, 0, len(s))
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

type Comment struct {
	ID         int64    `gorm:"primaryKey" json:"id"`
	UserID     int64    `gorm:"not null;index" json:"user_id"`
	PostSlug   string   `gorm:"size:200;not null;index" json:"post_slug"`
	ParentID   *int64   `gorm:"index" json:"parent_id,omitempty"`
	Content    string   `gorm:"type:text;not null" json:"content"`
	LikesCount int      `gorm:"not null;default:0" json:"likes_count"`
	LikedBy    Int64Set `gorm:"type:text" json:"liked_by"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	User    *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}

func (Comment) TableName() string {
	return "comments"
}
