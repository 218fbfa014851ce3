/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package grid

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fiveUpdates() []Event {
	return []Event{
		{Row: 0, Col: 0, Character: "a"},
		{Row: 0, Col: 1, Character: "b"},
		{Row: 0, Col: 2, Character: "c"},
		{Row: 0, Col: 3, Character: "d"},
		{Row: 0, Col: 4, Character: "e"},
	}
}

func liveTimeline(t *testing.T, opts ...TimelineOption) *Timeline {
	t.Helper()

	tl := NewTimeline(opts...)
	t.Cleanup(tl.Stop)

	h := fiveUpdates()
	live, err := Reconstruct(h, len(h)-1)
	require.NoError(t, err)

	tl.Receive(ServerMessage{Type: TypeFullGrid, Grid: &live})
	tl.Receive(ServerMessage{Type: TypeHistorySnapshot, History: h})

	return tl
}

func TestTimelineStartsLive(t *testing.T) {
	tl := liveTimeline(t)

	assert.Equal(t, Live, tl.Mode())
	assert.Equal(t, 4, tl.Index())
	assert.True(t, tl.CanEdit())
	assert.Equal(t, "e", tl.Frame().Grid[0][4])
	assert.Equal(t, tl.Frame().Grid, tl.Grid())
}

func TestTimelineScrub(t *testing.T) {
	tl := liveTimeline(t)

	require.NoError(t, tl.Scrub(1))
	f := tl.Frame()
	assert.Equal(t, Viewing, f.Mode)
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "b", f.Grid[0][1])
	assert.Empty(t, f.Grid[0][2])
	assert.False(t, tl.CanEdit())

	require.NoError(t, tl.Scrub(3))
	assert.Equal(t, "d", tl.Frame().Grid[0][3])

	assert.ErrorIs(t, tl.Scrub(5), ErrIndexOutOfRange)
	assert.ErrorIs(t, tl.Scrub(-1), ErrIndexOutOfRange)
	assert.Equal(t, 3, tl.Index())
}

func TestTimelineLiveUpdatesDoNotMoveViewer(t *testing.T) {
	tl := liveTimeline(t)
	require.NoError(t, tl.Scrub(0))

	tl.Receive(ServerMessage{Type: TypeCellChanged, Event: &Event{Row: 9, Col: 9, Character: "z"}})
	tl.Receive(ServerMessage{Type: TypeHistorySnapshot, History: append(fiveUpdates(), Event{Row: 9, Col: 9, Character: "z"})})

	f := tl.Frame()
	assert.Equal(t, Viewing, f.Mode)
	assert.Equal(t, 0, f.Index)
	assert.Empty(t, f.Grid[9][9])
	assert.Equal(t, 6, tl.Len())
}

func TestTimelinePlayFromLiveAtEnd(t *testing.T) {
	tl := liveTimeline(t)

	assert.False(t, tl.Play())
	assert.Equal(t, Live, tl.Mode())
}

func TestTimelinePlayRunsToEnd(t *testing.T) {
	var (
		mu     sync.Mutex
		frames []int
	)

	tl := liveTimeline(t, WithTick(5*time.Millisecond), WithFrameHandler(func(f Frame) {
		mu.Lock()
		defer mu.Unlock()
		if f.Mode == Playing {
			frames = append(frames, f.Index)
		}
	}))

	require.NoError(t, tl.Scrub(1))
	require.True(t, tl.Play())
	assert.False(t, tl.CanEdit())

	require.Eventually(t, func() bool {
		return tl.Mode() == Viewing
	}, time.Second, time.Millisecond)

	assert.Equal(t, 4, tl.Index())
	assert.Equal(t, "e", tl.Frame().Grid[0][4])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, frames)
}

func TestTimelinePauseStopsTicks(t *testing.T) {
	tl := liveTimeline(t, WithTick(20*time.Millisecond))

	require.NoError(t, tl.Scrub(0))
	require.True(t, tl.Play())

	require.Eventually(t, func() bool {
		return tl.Index() >= 1
	}, time.Second, time.Millisecond)

	tl.Pause()
	paused := tl.Index()
	assert.Equal(t, Viewing, tl.Mode())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, paused, tl.Index())

	require.True(t, tl.Play())
	assert.Equal(t, Playing, tl.Mode())
}

func TestTimelineResetRequestsHistory(t *testing.T) {
	var requests atomic.Int32

	tl := liveTimeline(t, WithTick(time.Hour), WithHistoryRequester(func() {
		requests.Add(1)
	}))

	require.NoError(t, tl.Scrub(0))
	require.True(t, tl.Play())

	tl.Reset()

	assert.Equal(t, Live, tl.Mode())
	assert.Equal(t, 4, tl.Index())
	assert.True(t, tl.CanEdit())
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, "e", tl.Frame().Grid[0][4])
}

func TestTimelineStopCancelsPlayback(t *testing.T) {
	tl := liveTimeline(t, WithTick(5*time.Millisecond))

	require.NoError(t, tl.Scrub(0))
	require.True(t, tl.Play())
	tl.Stop()

	assert.Equal(t, Viewing, tl.Mode())
	at := tl.Index()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, at, tl.Index())
}

func TestTimelineParticipants(t *testing.T) {
	tl := NewTimeline()
	tl.Receive(ServerMessage{Type: TypeParticipantCount, Count: 3})

	assert.Equal(t, 3, tl.Participants())
	assert.Equal(t, -1, tl.Index())
	assert.False(t, tl.Play())
}

func TestTimelinePlaybackFollowsGrowingHistory(t *testing.T) {
	tl := liveTimeline(t, WithTick(20*time.Millisecond))

	require.NoError(t, tl.Scrub(0))
	require.True(t, tl.Play())

	longer := append(fiveUpdates(),
		Event{Row: 1, Col: 0, Character: "f"},
		Event{Row: 1, Col: 1, Character: "g"},
	)
	tl.SetHistory(longer)
	assert.Equal(t, Playing, tl.Mode())

	require.Eventually(t, func() bool {
		return tl.Mode() == Viewing
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 6, tl.Index())
	assert.Equal(t, "g", tl.Grid()[1][1])
}

func TestTimelinePlaybackClampsToShorterHistory(t *testing.T) {
	tl := liveTimeline(t, WithTick(time.Hour))

	require.NoError(t, tl.Scrub(3))
	tl.Receive(ServerMessage{Type: TypeHistorySnapshot, History: append(fiveUpdates(), Event{Row: 5, Col: 5, Character: "x"})})
	require.True(t, tl.Play())

	tl.SetHistory(fiveUpdates()[:2])

	f := tl.Frame()
	assert.Equal(t, Playing, f.Mode)
	assert.Equal(t, 1, f.Index)
	assert.Equal(t, "b", f.Grid[0][1])
	assert.Empty(t, f.Grid[0][2])
	assert.Empty(t, f.Grid[0][3])

	tl.Pause()
	assert.Equal(t, Viewing, tl.Mode())
	assert.Equal(t, 1, tl.Index())
}

func TestTimelinePlaybackEndsAfterShrinkingHistory(t *testing.T) {
	tl := liveTimeline(t, WithTick(5*time.Millisecond))

	require.NoError(t, tl.Scrub(2))
	require.True(t, tl.Play())
	tl.SetHistory(fiveUpdates()[:2])

	require.Eventually(t, func() bool {
		return tl.Mode() == Viewing
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, tl.Index())
}
