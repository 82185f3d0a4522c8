package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mauricedolibois/bubblepop/game"
	"github.com/mauricedolibois/bubblepop/ranking"
)

var testEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type submission struct {
	name  string
	score int
	token string
}

type fakeStore struct {
	mu          sync.Mutex
	fail        bool
	submissions []submission
	entries     []ranking.Entry
}

func (f *fakeStore) SubmitScore(ctx context.Context, name string, score int, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.submissions = append(f.submissions, submission{name, score, token})
	return true
}

func (f *fakeStore) FetchTopScores(ctx context.Context, limit int) []ranking.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ranking.Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

type sentLog struct {
	msgs []ServerMessage
}

func (l *sentLog) send(m ServerMessage) { l.msgs = append(l.msgs, m) }

func (l *sentLog) ofType(typ string) []ServerMessage {
	var out []ServerMessage
	for _, m := range l.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (l *sentLog) last(t *testing.T, typ string) ServerMessage {
	t.Helper()
	msgs := l.ofType(typ)
	if len(msgs) == 0 {
		t.Fatalf("no %s message sent, got %+v", typ, l.msgs)
	}
	return msgs[len(msgs)-1]
}

// quietRunner never spawns on its own so tests place every bubble.
func quietRunner(store ScoreStore, id Identity) (*SessionRunner, *sentLog) {
	t := game.DefaultTuning()
	t.BaseSpawnEvery = time.Hour
	log := &sentLog{}
	return NewSessionRunner(t, store, id, time.Second, log.send), log
}

func cmd(typ string, p ClientPayload) runnerCommand {
	return runnerCommand{msg: ClientMessage{Type: typ, Payload: p}}
}

// awaitPosted waits for a store result posted back by a runner goroutine.
func awaitPosted(t *testing.T, r *SessionRunner) runnerCommand {
	t.Helper()
	select {
	case c := <-r.inbox:
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for store result")
	}
	return runnerCommand{}
}

// playToGameOver scores one pop then lets three normal bubbles expire.
func playToGameOver(t *testing.T, r *SessionRunner) {
	t.Helper()
	r.handle(cmd(MsgTypeStartSession, ClientPayload{}), testEpoch)
	popped, _ := r.session.SpawnBubble(game.BubbleSpec{Kind: game.BubbleNormal, Size: 42}, testEpoch)
	for i := 0; i < 3; i++ {
		r.session.SpawnBubble(game.BubbleSpec{Kind: game.BubbleNormal, Size: 60}, testEpoch)
	}
	r.handle(cmd(MsgTypeClickBubble, ClientPayload{ID: popped.ID}), testEpoch.Add(100*time.Millisecond))
	r.advance(testEpoch.Add(2 * time.Second))
	if r.session.State() != game.StateOver {
		t.Fatalf("expected game over, state %s", r.session.State())
	}
}

func TestRunnerStartSendsSnapshotAndRejectsDoubleStart(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})

	r.handle(cmd(MsgTypeStartSession, ClientPayload{}), testEpoch)
	snap, ok := sent.last(t, MsgTypeState).Payload.(game.Snapshot)
	if !ok || snap.State != game.StateRunning || snap.Lives != 3 {
		t.Fatalf("unexpected snapshot %+v", sent.last(t, MsgTypeState).Payload)
	}

	r.handle(cmd(MsgTypeStartSession, ClientPayload{}), testEpoch.Add(time.Second))
	if len(sent.ofType(MsgTypeError)) != 1 {
		t.Fatalf("expected second start to be rejected")
	}
}

func TestRunnerClickForwardsEvents(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})
	r.handle(cmd(MsgTypeStartSession, ClientPayload{}), testEpoch)
	b, _ := r.session.SpawnBubble(game.BubbleSpec{Kind: game.BubbleNormal, Size: 42}, testEpoch)
	r.flush()

	r.handle(cmd(MsgTypeClickBubble, ClientPayload{ID: b.ID}), testEpoch.Add(300*time.Millisecond))

	ev := sent.last(t, MsgTypeEvent).Payload.(game.Event)
	if ev.Type != game.EventBubblePopped || ev.Points != 100 || ev.Score != 100 {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestRunnerAdvancesBeforeClick(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})
	r.handle(cmd(MsgTypeStartSession, ClientPayload{}), testEpoch)
	b, _ := r.session.SpawnBubble(game.BubbleSpec{Kind: game.BubbleNormal, Size: 42}, testEpoch)

	// The bubble is gone by 2.5s even though no deadline tick ran.
	r.handle(cmd(MsgTypeClickBubble, ClientPayload{ID: b.ID}), testEpoch.Add(2500*time.Millisecond))

	if r.session.Score() != 0 || r.session.Lives() != 2 {
		t.Fatalf("expected a miss, score %d lives %d", r.session.Score(), r.session.Lives())
	}
	if len(sent.ofType(MsgTypeEvent)) == 0 {
		t.Fatal("expected miss events to be forwarded")
	}
}

func TestRunnerGameOverOffersSave(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})
	playToGameOver(t, r)

	over := sent.last(t, MsgTypeGameOver).Payload.(GameOverPayload)
	if over.Score != 100 || !over.CanSave {
		t.Fatalf("unexpected game over payload %+v", over)
	}
}

func TestRunnerSubmitSavesAndRefreshesLeaderboard(t *testing.T) {
	store := &fakeStore{entries: []ranking.Entry{{Name: "A", Score: 50}, {Name: "B", Score: 90}, {Name: "C", Score: 90}}}
	r, sent := quietRunner(store, Identity{})
	playToGameOver(t, r)

	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Zed"}), testEpoch.Add(3*time.Second))
	r.handle(awaitPosted(t, r), testEpoch.Add(3*time.Second))

	saved := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload)
	if !saved.Success || saved.Message != "Score saved!" {
		t.Fatalf("unexpected save result %+v", saved)
	}
	if len(store.submissions) != 1 || store.submissions[0] != (submission{"Zed", 100, ""}) {
		t.Fatalf("unexpected submissions %+v", store.submissions)
	}

	r.handle(awaitPosted(t, r), testEpoch.Add(3*time.Second))
	board := sent.last(t, MsgTypeLeaderboard).Payload.(LeaderboardPayload)
	if len(board.Entries) != 3 || board.Entries[0].Name != "B" || board.Entries[1].Name != "C" || board.Entries[2].Name != "A" {
		t.Fatalf("unexpected leaderboard %+v", board.Entries)
	}

	// A saved game cannot be saved twice
	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Zed"}), testEpoch.Add(4*time.Second))
	again := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload)
	if again.Success || again.Message != "No score to save" {
		t.Fatalf("expected resubmission to be refused, got %+v", again)
	}
}

func TestRunnerSubmitRules(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})

	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Early"}), testEpoch)
	if msg := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload); msg.Message != "No score to save" {
		t.Fatalf("expected idle submit to be refused, got %+v", msg)
	}

	playToGameOver(t, r)
	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "   "}), testEpoch.Add(3*time.Second))
	if msg := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload); msg.Message != "Please enter a name" {
		t.Fatalf("expected guest without name to be refused, got %+v", msg)
	}
}

func TestRunnerSignedInPlayerSubmitsWithToken(t *testing.T) {
	store := &fakeStore{}
	r, _ := quietRunner(store, Identity{UserID: "u1", Name: "Alice", Token: "tok"})
	playToGameOver(t, r)

	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{}), testEpoch.Add(3*time.Second))
	r.handle(awaitPosted(t, r), testEpoch.Add(3*time.Second))

	if len(store.submissions) != 1 || store.submissions[0].token != "tok" {
		t.Fatalf("expected token to be forwarded, got %+v", store.submissions)
	}
}

func TestRunnerFailedSaveCanBeRetried(t *testing.T) {
	store := &fakeStore{fail: true}
	r, sent := quietRunner(store, Identity{})
	playToGameOver(t, r)

	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Zed"}), testEpoch.Add(3*time.Second))
	r.handle(awaitPosted(t, r), testEpoch.Add(3*time.Second))
	if msg := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload); msg.Success || msg.Message != "Failed to save score" {
		t.Fatalf("unexpected failure message %+v", msg)
	}

	store.mu.Lock()
	store.fail = false
	store.mu.Unlock()
	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Zed"}), testEpoch.Add(4*time.Second))
	r.handle(awaitPosted(t, r), testEpoch.Add(4*time.Second))
	if msg := sent.last(t, MsgTypeScoreSaved).Payload.(ScoreSavedPayload); !msg.Success {
		t.Fatalf("expected retry to succeed, got %+v", msg)
	}
}

func TestRunnerResultAfterRestartDoesNotMarkNewGame(t *testing.T) {
	r, _ := quietRunner(&fakeStore{}, Identity{})
	playToGameOver(t, r)

	r.handle(cmd(MsgTypeSubmitScore, ClientPayload{Name: "Zed"}), testEpoch.Add(3*time.Second))
	result := awaitPosted(t, r)
	r.handle(cmd(MsgTypeResetSession, ClientPayload{}), testEpoch.Add(3*time.Second))
	r.handle(result, testEpoch.Add(3*time.Second))

	if r.submitted {
		t.Fatal("stale save result marked the new game as saved")
	}
}

func TestRunnerLeaderboardRequestUsesLimit(t *testing.T) {
	store := &fakeStore{entries: []ranking.Entry{{Name: "A", Score: 50}, {Name: "B", Score: 90}, {Name: "C", Score: 90}}}
	r, sent := quietRunner(store, Identity{})

	r.handle(cmd(MsgTypeRequestLeaderboard, ClientPayload{Limit: 2}), testEpoch)
	r.handle(awaitPosted(t, r), testEpoch)

	board := sent.last(t, MsgTypeLeaderboard).Payload.(LeaderboardPayload)
	if len(board.Entries) != 2 || board.Entries[0].Name != "B" || board.Entries[1].Name != "C" {
		t.Fatalf("unexpected leaderboard %+v", board.Entries)
	}
}

func TestRunnerUnknownMessage(t *testing.T) {
	r, sent := quietRunner(&fakeStore{}, Identity{})
	r.handle(cmd("DANCE", ClientPayload{}), testEpoch)
	if len(sent.ofType(MsgTypeError)) != 1 {
		t.Fatal("expected an error for unknown message type")
	}
}

func TestRunnerRunLoop(t *testing.T) {
	out := make(chan ServerMessage, 256)
	r := NewSessionRunner(game.DefaultTuning(), &fakeStore{}, Identity{}, 10*time.Millisecond, func(m ServerMessage) { out <- m })
	go r.Run()
	defer r.Stop()

	r.Post(ClientMessage{Type: MsgTypeStartSession})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-out:
			if m.Type != MsgTypeEvent {
				continue
			}
			if ev := m.Payload.(game.Event); ev.Type == game.EventBubbleSpawned {
				return
			}
		case <-deadline:
			t.Fatal("expected a bubble to spawn from the deadline timer")
		}
	}
}
