package arena_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spider2/runtime/arena"
)

func TestStackAllocBumpsMark(t *testing.T) {
	s := arena.NewStack("t", 16)

	a, err := s.Alloc(4)
	require.NoError(t, err)
	require.Len(t, a, 4)
	require.Equal(t, 4, s.InUse())

	b, err := s.Alloc(8)
	require.NoError(t, err)
	require.Len(t, b, 8)
	require.Equal(t, 12, s.InUse())
	require.Equal(t, 12, s.Peak())
}

func TestStackAllocZeroSizeReturnsNil(t *testing.T) {
	s := arena.NewStack("t", 16)
	b, err := s.Alloc(0)
	require.NoError(t, err)
	require.Nil(t, b)
	require.Equal(t, 0, s.InUse())
}

func TestStackAllocExhausted(t *testing.T) {
	s := arena.NewStack("t", 8)

	_, err := s.Alloc(6)
	require.NoError(t, err)

	_, err = s.Alloc(4)
	require.Error(t, err)
	require.True(t, errors.Is(err, arena.ErrStackExhausted))
}

func TestStackResetRewindsMark(t *testing.T) {
	s := arena.NewStack("t", 8)

	_, err := s.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, 8, s.InUse())

	s.Reset()
	require.Equal(t, 0, s.InUse())
	require.Equal(t, 8, s.Peak(), "peak survives a reset")

	_, err = s.Alloc(8)
	require.NoError(t, err, "buffer is reusable after reset")
}

func TestStackAllocationsDoNotOverlap(t *testing.T) {
	s := arena.NewStack("t", 16)

	a, err := s.Alloc(4)
	require.NoError(t, err)
	b, err := s.Alloc(4)
	require.NoError(t, err)

	a[0] = 0xAA
	b[0] = 0xBB
	require.Equal(t, byte(0xAA), a[0])
	require.Equal(t, byte(0xBB), b[0])
}

func TestNewSetPreallocatesAllNamedStacks(t *testing.T) {
	set := arena.NewSet(nil)

	for _, name := range []string{
		arena.PISDF, arena.Transfo, arena.Schedule,
		arena.Runtime, arena.General, arena.Constraints, arena.Expression,
	} {
		st, err := set.Stack(name)
		require.NoError(t, err)
		require.Equal(t, name, st.Name())
	}
}

func TestSetStackUnknownName(t *testing.T) {
	set := arena.NewSet(nil)
	_, err := set.Stack("bogus")
	require.Error(t, err)
	require.True(t, errors.Is(err, arena.ErrUnknownStack))
}

func TestNewSetHonorsConfigCapacity(t *testing.T) {
	set := arena.NewSet(arena.Config{arena.Expression: 32})

	st, err := set.Stack(arena.Expression)
	require.NoError(t, err)
	require.Equal(t, 32, st.Capacity())

	other, err := set.Stack(arena.PISDF)
	require.NoError(t, err)
	require.NotEqual(t, 32, other.Capacity())
}

func TestSetResetAllRewindsEveryStack(t *testing.T) {
	set := arena.NewSet(arena.Config{arena.General: 8})
	st, err := set.Stack(arena.General)
	require.NoError(t, err)

	_, err = st.Alloc(8)
	require.NoError(t, err)
	require.Equal(t, 8, st.InUse())

	set.ResetAll()
	require.Equal(t, 0, st.InUse())
}
