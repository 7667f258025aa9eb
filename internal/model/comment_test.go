package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64Set_AddRemoveContains(t *testing.T) {
	s := Int64Set{}
	assert.False(t, s.Contains(1))

	s = s.Add(1)
	s = s.Add(2)
	assert.True(t, s.Contains(1))
	assert.True(t, s.Contains(2))
	assert.Len(t, s, 2)

	// 重复添加不产生重复元素
	s = s.Add(1)
	assert.Len(t, s, 2)

	s = s.Remove(1)
	assert.False(t, s.Contains(1))
	assert.Len(t, s, 1)

	// 移除不存在的成员无副作用
	s = s.Remove(99)
	assert.Len(t, s, 1)
}

func TestInt64Set_ValueAndScan(t *testing.T) {
	s := Int64Set{3, 1, 2}

	val, err := s.Value()
	require.NoError(t, err)

	var got Int64Set
	require.NoError(t, got.Scan(val))
	assert.Equal(t, s, got)
}

func TestInt64Set_Scan_Nil(t *testing.T) {
	var s Int64Set
	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)
}

func TestUser_DisplayName(t *testing.T) {
	u := &User{Username: "alice"}
	assert.Equal(t, "alice", u.DisplayName())

	u.FullName = "Alice Zhang"
	assert.Equal(t, "Alice Zhang", u.DisplayName())
}
