package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/gyeongdo-backend/internal"
)

func jailbreakRoom(t *testing.T, delay time.Duration) (*Room, *recordingSender) {
	t.Helper()
	cfg := manualClock()
	cfg.JailbreakDelay = delay

	reg, sender := newTestRegistry(t, cfg)
	room := reg.GetOrCreate("R1", "P")
	for _, s := range []string{"P", "T1", "T2"} {
		require.NoError(t, room.Join(s, "", "conn-"+s))
	}
	require.NoError(t, room.AssignRole("P", "P", internal.TeamPolice))
	require.NoError(t, room.AssignRole("P", "T1", internal.TeamThief))
	require.NoError(t, room.AssignRole("P", "T2", internal.TeamThief))
	require.NoError(t, room.Start("P"))
	require.NoError(t, room.RespondArrest("T1", "P", true))
	sender.reset()
	return room, sender
}

func TestJailbreakFreesDeadThieves(t *testing.T) {
	room, sender := jailbreakRoom(t, 50*time.Millisecond)

	require.NoError(t, room.TriggerJailbreak("T2"))

	triggered := sender.ofType(internal.EventJailbreakTriggered)
	require.Len(t, triggered, 1)
	assert.Equal(t, internal.JailbreakTriggeredData{ThiefID: "T2", Duration: 1}, triggered[0].msg.Data)

	t1, _ := room.Player("T1")
	assert.Equal(t, internal.StatusDead, t1.Status)
	assert.Equal(t, 1, room.PendingReleases())

	require.Eventually(t, func() bool {
		p, _ := room.Player("T1")
		return p.Status == internal.StatusAlive
	}, time.Second, 5*time.Millisecond)

	freed := sender.ofType(internal.EventPlayerFreed)
	require.Len(t, freed, 1)
	assert.Equal(t, internal.PlayerFreedData{FreedThieves: []string{"T1"}}, freed[0].msg.Data)
	assert.Equal(t, 0, room.PendingReleases())
}

func TestJailbreakCancelledByEnd(t *testing.T) {
	room, sender := jailbreakRoom(t, 40*time.Millisecond)

	require.NoError(t, room.TriggerJailbreak("T2"))
	room.End(internal.ReasonTimeUp)
	assert.Equal(t, 0, room.PendingReleases())

	time.Sleep(120 * time.Millisecond)

	t1, _ := room.Player("T1")
	assert.Equal(t, internal.StatusDead, t1.Status)
	assert.Empty(t, sender.ofType(internal.EventPlayerFreed))

	types := sender.types()
	assert.Equal(t, internal.EventGameEnded, types[len(types)-1])
}

func TestJailbreakValidation(t *testing.T) {
	room, _ := jailbreakRoom(t, time.Hour)

	assert.ErrorIs(t, room.TriggerJailbreak("P"), ErrForbidden)
	assert.ErrorIs(t, room.TriggerJailbreak("ghost"), ErrNotFound)

	room.End(internal.ReasonTimeUp)
	assert.ErrorIs(t, room.TriggerJailbreak("T2"), ErrInvalidState)
}

func TestJailbreakDefaultDuration(t *testing.T) {
	assert.Equal(t, 3, wholeSeconds(internal.DefaultJailbreakDelay))
	assert.Equal(t, 1, wholeSeconds(10*time.Millisecond))
}
