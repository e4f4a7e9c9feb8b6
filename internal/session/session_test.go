package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateIDShape(t *testing.T) {
	id := GenerateID()
	require.Len(t, id, 32)
	require.NotContains(t, id, "-")
	require.NotEqual(t, id, GenerateID())
}

func TestEnsureReusesCurrentSession(t *testing.T) {
	m := NewManager()
	require.Empty(t, m.Current())

	first := m.Ensure()
	require.NotEmpty(t, first)
	require.Equal(t, first, m.Ensure())
	require.Equal(t, first, m.Current())
}

func TestStartReplacesSession(t *testing.T) {
	m := NewManager()
	first := m.Start()
	second := m.Start()
	require.NotEqual(t, first, second)
	require.Equal(t, second, m.Current())
}

func TestAdopt(t *testing.T) {
	m := NewManager()
	require.Equal(t, "abc", m.Adopt("  abc "))
	require.Equal(t, "abc", m.Current())
	// Blank input keeps the existing session.
	require.Equal(t, "abc", m.Adopt("   "))

	m.Clear()
	require.Empty(t, m.Current())
}
