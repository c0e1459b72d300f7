package game

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tatami-games/goban-server/pkg/board"
	"github.com/tatami-games/goban-server/pkg/clock"
	"github.com/tatami-games/goban-server/pkg/events"
	"github.com/tatami-games/goban-server/pkg/messages"
)

type fixture struct {
	session *Session
	clk     *clockwork.FakeClock
	pub     *events.Publisher
}

func newFixture(t *testing.T, settings clock.Settings) *fixture {
	t.Helper()

	clk := clockwork.NewFakeClock()
	pub := events.NewPublisher()

	s, err := NewSession(CreateParams{
		GameID:    uuid.New(),
		BoardSize: 9,
		Komi:      6.5,
		Settings:  settings,
	}, pub, zap.NewNop(), clk)
	require.NoError(t, err)

	s.Start()
	t.Cleanup(s.Terminate)

	return &fixture{session: s, clk: clk, pub: pub}
}

// collect subscribes to one event type and returns a channel of events.
func (f *fixture) collect(eventType events.EventType) <-chan events.Event {
	ch := make(chan events.Event, 16)
	f.pub.Subscribe(eventType, func(e events.Event) { ch <- e })
	return ch
}

func waitEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}

func assertNoEvent(t *testing.T, ch <-chan events.Event) {
	t.Helper()
	select {
	case e := <-ch:
		t.Fatalf("unexpected extra event %v", e.Type)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestMoveDeductsElapsedTime(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	f.clk.Advance(42 * time.Second)
	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))

	assert.Equal(t, int64(558), f.session.clocks[board.Black].MainSeconds)
	assert.Equal(t, board.White, f.session.Turn())
	assert.Len(t, f.session.History(), 1)
}

func TestWrongTurnRejected(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	err := f.session.ProcessMove(board.Move{Color: board.White, X: 3, Y: 3})
	assert.ErrorIs(t, err, ErrWrongTurn)

	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))

	// A duplicate of the same submission after the turn advanced is a
	// stale event: rejected without touching state.
	err = f.session.ProcessMove(board.Move{Color: board.Black, X: 4, Y: 4})
	assert.ErrorIs(t, err, ErrWrongTurn)
	assert.Len(t, f.session.History(), 1)
}

func TestIllegalMoveLeavesClockRunning(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))

	f.clk.Advance(10 * time.Second)
	err := f.session.ProcessMove(board.Move{Color: board.White, X: 3, Y: 3})
	assert.ErrorIs(t, err, board.ErrOccupied)

	// The rejection charged nothing and did not reset the turn clock:
	// the legal retry still pays for the full thinking time.
	f.clk.Advance(5 * time.Second)
	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.White, X: 4, Y: 4}))
	assert.Equal(t, int64(585), f.session.clocks[board.White].MainSeconds)
}

func TestLateMoveTimesOut(t *testing.T) {
	f := newFixture(t, clock.Settings{PerMoveSeconds: 10})
	ch := f.collect(events.EventGameOver)

	f.clk.Advance(11 * time.Second)
	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))

	assert.Equal(t, StatusFinished, f.session.Status())
	winner, result := f.session.Result()
	assert.Equal(t, board.White, winner)
	assert.Equal(t, "W+T", result)
	assert.Empty(t, f.session.History(), "stone placed past the budget does not count")

	e := waitEvent(t, ch)
	assert.Equal(t, events.EventGameOver, e.Type)
}

func TestBlitzMoveWithinAllotmentResets(t *testing.T) {
	f := newFixture(t, clock.Settings{PerMoveSeconds: 10})

	f.clk.Advance(10 * time.Second)
	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))

	assert.Equal(t, StatusPlaying, f.session.Status())
	assert.Equal(t, int64(10), f.session.clocks[board.Black].PerMoveSeconds)
}

func TestIdleTimeoutViaTick(t *testing.T) {
	f := newFixture(t, clock.Settings{PerMoveSeconds: 10})

	// Nobody moves. The broadcaster's idle detection ends the game on
	// its own.
	f.clk.Advance(11 * time.Second)
	f.session.tickOnce()

	assert.Equal(t, StatusFinished, f.session.Status())
	winner, result := f.session.Result()
	assert.Equal(t, board.White, winner)
	assert.Equal(t, "W+T", result)
}

func TestIdleMainTimeEntersOvertime(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 45, Periods: 7, PeriodSeconds: 30})

	f.clk.Advance(45 * time.Second)
	f.session.tickOnce()

	pc := f.session.clocks[board.Black]
	assert.True(t, pc.InOvertime)
	assert.Equal(t, 7, pc.PeriodsLeft)
	assert.Equal(t, StatusPlaying, f.session.Status())

	// Still idle: one second past the first period consumes it.
	f.clk.Advance(31 * time.Second)
	f.session.tickOnce()

	pc = f.session.clocks[board.Black]
	assert.Equal(t, 6, pc.PeriodsLeft)
	assert.Equal(t, int64(30), pc.PeriodSeconds)
}

func TestIdleOvertimeExhaustionTimesOut(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 5, Periods: 2, PeriodSeconds: 10})

	// 5s main + 2x10s periods, plus one second over the last boundary.
	f.clk.Advance(5 * time.Second)
	f.session.tickOnce()
	require.True(t, f.session.clocks[board.Black].InOvertime)

	f.clk.Advance(21 * time.Second)
	f.session.tickOnce()

	assert.Equal(t, StatusFinished, f.session.Status())
	_, result := f.session.Result()
	assert.Equal(t, "W+T", result)
}

func TestTimeoutFiresExactlyOneGameOverEvent(t *testing.T) {
	f := newFixture(t, clock.Settings{PerMoveSeconds: 10})
	ch := f.collect(events.EventGameOver)

	f.clk.Advance(11 * time.Second)

	// Both timeout triggers race here: the idle tick and a late move.
	f.session.tickOnce()
	f.session.tickOnce()
	_ = f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3})

	waitEvent(t, ch)
	assertNoEvent(t, ch)
}

func TestUnlimitedTimeNeverTimesOut(t *testing.T) {
	f := newFixture(t, clock.Settings{})

	f.clk.Advance(1000 * time.Hour)
	f.session.tickOnce()
	assert.Equal(t, StatusPlaying, f.session.Status())

	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3}))
	assert.Equal(t, StatusPlaying, f.session.Status())
}

func TestResign(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	require.NoError(t, f.session.Resign(board.White))

	assert.Equal(t, StatusFinished, f.session.Status())
	winner, result := f.session.Result()
	assert.Equal(t, board.Black, winner)
	assert.Equal(t, "B+R", result)

	err := f.session.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 3})
	assert.ErrorIs(t, err, ErrNotPlaying)
}

func TestFinishByScore(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	require.NoError(t, f.session.FinishByScore(board.Black, "B+12.5"))
	_, result := f.session.Result()
	assert.Equal(t, "B+12.5", result)

	assert.ErrorIs(t, f.session.FinishByScore(board.White, "W+1.5"), ErrNotPlaying)
}

func TestPassFlipsTurnAndChargesClock(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})

	f.clk.Advance(7 * time.Second)
	require.NoError(t, f.session.ProcessPass(board.Black))

	assert.Equal(t, int64(593), f.session.clocks[board.Black].MainSeconds)
	assert.Equal(t, board.White, f.session.Turn())
}

func TestMoveBroadcastsImmediately(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})
	ch := f.collect(events.EventMoveProcessed)

	require.NoError(t, f.session.ProcessMove(board.Move{Color: board.Black, X: 2, Y: 2}))

	e := waitEvent(t, ch)
	assert.Equal(t, f.session.ID.String(), e.GameID)
	payload, ok := e.Payload.(messages.GameStatePayload)
	require.True(t, ok)
	assert.Greater(t, payload.ServerTime, int64(0))
	assert.Equal(t, board.White, payload.CurrentTurn)
}

func TestTickerPublishesClockUpdates(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})
	ch := f.collect(events.EventClockUpdated)

	// Wait for the broadcaster goroutine to register its ticker.
	f.clk.BlockUntil(1)
	f.clk.Advance(f.session.tickInterval)
	waitEvent(t, ch)
}

func TestHandicapGameWhiteMovesFirst(t *testing.T) {
	clk := clockwork.NewFakeClock()
	pub := events.NewPublisher()

	s, err := NewSession(CreateParams{
		GameID:    uuid.New(),
		BoardSize: 9,
		Handicap:  4,
		Settings:  clock.Settings{MainSeconds: 600},
	}, pub, zap.NewNop(), clk)
	require.NoError(t, err)
	s.Start()
	defer s.Terminate()

	assert.Equal(t, board.White, s.Turn())

	err = s.ProcessMove(board.Move{Color: board.Black, X: 0, Y: 0})
	assert.ErrorIs(t, err, ErrWrongTurn)
	require.NoError(t, s.ProcessMove(board.Move{Color: board.White, X: 4, Y: 4}))
}

func TestKoRejectedThroughSession(t *testing.T) {
	f := newFixture(t, clock.Settings{MainSeconds: 600})
	s := f.session

	moves := []board.Move{
		{Color: board.Black, X: 2, Y: 1},
		{Color: board.White, X: 3, Y: 1},
		{Color: board.Black, X: 1, Y: 2},
		{Color: board.White, X: 4, Y: 2},
		{Color: board.Black, X: 2, Y: 3},
		{Color: board.White, X: 3, Y: 3},
		{Color: board.Black, X: 3, Y: 2},
		{Color: board.White, X: 2, Y: 2}, // takes the ko
	}
	for _, mv := range moves {
		require.NoError(t, s.ProcessMove(mv))
	}

	err := s.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 2})
	assert.ErrorIs(t, err, board.ErrKo)

	// After a ko threat exchange elsewhere the recapture is legal.
	require.NoError(t, s.ProcessMove(board.Move{Color: board.Black, X: 8, Y: 8}))
	require.NoError(t, s.ProcessMove(board.Move{Color: board.White, X: 7, Y: 8}))
	require.NoError(t, s.ProcessMove(board.Move{Color: board.Black, X: 3, Y: 2}))
}

func TestInvalidSettingsRejected(t *testing.T) {
	_, err := NewSession(CreateParams{
		GameID:    uuid.New(),
		BoardSize: 9,
		Settings:  clock.Settings{MainSeconds: 60, PerMoveSeconds: 10},
	}, events.NewPublisher(), zap.NewNop(), clockwork.NewFakeClock())
	assert.ErrorIs(t, err, clock.ErrBlitzExclusive)
}
