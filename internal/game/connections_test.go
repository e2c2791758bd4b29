package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistryBindResolveUnbind(t *testing.T) {
	conns := NewConnectionRegistry()

	_, ok := conns.Resolve("c1")
	assert.False(t, ok)

	conns.Bind("c1", "R1", "A")
	b, ok := conns.Resolve("c1")
	require.True(t, ok)
	assert.Equal(t, Binding{RoomID: "R1", SessionID: "A"}, b)
	assert.ElementsMatch(t, []string{"c1"}, conns.ConnectionsIn("R1"))

	b, ok = conns.Unbind("c1")
	require.True(t, ok)
	assert.Equal(t, "R1", b.RoomID)
	assert.Empty(t, conns.ConnectionsIn("R1"))

	_, ok = conns.Unbind("c1")
	assert.False(t, ok)
}

func TestConnectionRegistryRebindMovesRooms(t *testing.T) {
	conns := NewConnectionRegistry()
	conns.Bind("c1", "R1", "A")
	conns.Bind("c2", "R1", "B")
	conns.Bind("c1", "R2", "A")

	assert.ElementsMatch(t, []string{"c2"}, conns.ConnectionsIn("R1"))
	assert.ElementsMatch(t, []string{"c1"}, conns.ConnectionsIn("R2"))

	b, _ := conns.Resolve("c1")
	assert.Equal(t, "R2", b.RoomID)
}
