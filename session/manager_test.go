package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGetOrCreate(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	s1 := m.GetOrCreate("interview-1", "user-1", 3, nil)
	require.NotNil(t, s1)

	// Same pair returns the same live session, ignoring new hydration args.
	s2 := m.GetOrCreate("interview-1", "user-1", 5, []int{0})
	assert.Same(t, s1, s2)

	// A different user on the same interview gets an isolated session.
	s3 := m.GetOrCreate("interview-1", "user-2", 3, nil)
	assert.NotSame(t, s1, s3)
}

func TestManagerGetAndRemove(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	_, ok := m.Get("interview-1", "user-1")
	assert.False(t, ok)

	created := m.GetOrCreate("interview-1", "user-1", 3, nil)

	got, ok := m.Get("interview-1", "user-1")
	require.True(t, ok)
	assert.Same(t, created, got)

	m.Remove("interview-1", "user-1")
	_, ok = m.Get("interview-1", "user-1")
	assert.False(t, ok)
}

func TestManagerKeyIsolation(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	a := m.GetOrCreate("interview-1", "user-1", 2, nil)
	b := m.GetOrCreate("interview-2", "user-1", 2, nil)
	require.NotSame(t, a, b)

	require.NoError(t, a.SetMode(ModeKeyboard))
	require.NoError(t, a.SetDraft(longAnswer))

	assert.Equal(t, "", b.Draft())
}
