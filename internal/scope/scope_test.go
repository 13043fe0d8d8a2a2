package scope

import (
	"testing"

	"github.com/quest-lang/quest/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareAndGet(t *testing.T) {
	s := New()
	s.Declare("x", value.Int(3))

	v, ok := s.Get("x")
	require.True(t, ok)
	{
		got, ok := value.IntOf(v)
		require.True(t, ok)
		assert.Equal(t, int64(3), got)
	}
}

func TestGetWalksOuterFrames(t *testing.T) {
	outer := New()
	outer.Declare("x", value.Int(1))
	inner := Push(outer)

	v, ok := inner.Get("x")
	require.True(t, ok)
	{
		got, ok := value.IntOf(v)
		require.True(t, ok)
		assert.Equal(t, int64(1), got)
	}
}

func TestInnerDeclareShadowsOuter(t *testing.T) {
	outer := New()
	outer.Declare("x", value.Int(1))
	inner := Push(outer)
	inner.Declare("x", value.Int(2))

	v, _ := inner.Get("x")
	{
		got, ok := value.IntOf(v)
		require.True(t, ok)
		assert.Equal(t, int64(2), got)
	}

	ov, _ := outer.Get("x")
	{
		got, ok := value.IntOf(ov)
		require.True(t, ok)
		assert.Equal(t, int64(1), got)
	}
}

func TestUpdateMutatesOuterFrame(t *testing.T) {
	outer := New()
	outer.Declare("x", value.Int(1))
	inner := Push(outer)

	err := inner.Update("x", value.Int(9))
	require.NoError(t, err)

	v, _ := outer.Get("x")
	{
		got, ok := value.IntOf(v)
		require.True(t, ok)
		assert.Equal(t, int64(9), got)
	}
}

func TestUpdateUnknownNameFails(t *testing.T) {
	s := New()
	err := s.Update("missing", value.Int(1))
	require.Error(t, err)
	var nameErr *NameError
	assert.ErrorAs(t, err, &nameErr)
}

func TestClosureSharesFrameByReference(t *testing.T) {
	// A closure captures a pointer to the defining frame, not a copy:
	// mutation via one holder is observable via the other (§4.3).
	defining := New()
	defining.Declare("counter", value.Int(0))

	captured := defining
	_ = captured.Update("counter", value.Int(1))

	v, _ := defining.Get("counter")
	{
		got, ok := value.IntOf(v)
		require.True(t, ok)
		assert.Equal(t, int64(1), got)
	}
}

func TestDeleteRemovesFirstMatch(t *testing.T) {
	outer := New()
	outer.Declare("x", value.Int(1))
	inner := Push(outer)
	inner.Declare("x", value.Int(2))

	require.NoError(t, inner.Delete("x"))
	assert.False(t, inner.DeclaredHere("x"), "inner frame's binding should be gone")

	ov, ok := outer.Get("x")
	require.True(t, ok, "outer frame's binding should survive")
	{
		got, ok := value.IntOf(ov)
		require.True(t, ok)
		assert.Equal(t, int64(1), got)
	}
}

func TestCallStackSnapshotNewestFirst(t *testing.T) {
	cs := NewCallStack()
	cs.Push(CallFrame{FuncName: "a", File: "main.q", Line: 1})
	cs.Push(CallFrame{FuncName: "b", File: "main.q", Line: 2})

	snap := cs.Snapshot()
	require.Len(t, snap, 2)
	assert.Contains(t, snap[0], "b")
	assert.Contains(t, snap[1], "a")
}

func TestCallStackPopRestoresDepth(t *testing.T) {
	cs := NewCallStack()
	cs.Push(CallFrame{FuncName: "a"})
	cs.Push(CallFrame{FuncName: "b"})
	cs.Pop()
	assert.Equal(t, 1, cs.Depth())
}
