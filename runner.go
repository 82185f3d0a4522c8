package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/mauricedolibois/bubblepop/game"
	"github.com/mauricedolibois/bubblepop/ranking"
)

const storeTimeout = 10 * time.Second

// runnerCommand is either a client message or the result of a store call
// made off the runner goroutine.
type runnerCommand struct {
	msg   ClientMessage
	saved *savedResult
	board *boardResult
}

// savedResult carries the game generation it was submitted from so a result
// landing after a restart cannot mark the new game as saved.
type savedResult struct {
	gen     int
	payload ScoreSavedPayload
}

type boardResult struct {
	limit   int
	entries []ranking.Entry
}

// SessionRunner is the only goroutine that touches its session. Commands,
// timer deadlines and render ticks are serialized through Run.
type SessionRunner struct {
	session     *game.Session
	store       ScoreStore
	identity    Identity
	send        func(ServerMessage)
	inbox       chan runnerCommand
	quit        chan struct{}
	renderEvery time.Duration

	gen        int
	submitting bool
	submitted  bool
}

func NewSessionRunner(t game.Tuning, store ScoreStore, id Identity, renderEvery time.Duration, send func(ServerMessage)) *SessionRunner {
	return &SessionRunner{
		session:     game.NewSession(t, nil),
		store:       store,
		identity:    id,
		send:        send,
		inbox:       make(chan runnerCommand, 64),
		quit:        make(chan struct{}),
		renderEvery: renderEvery,
	}
}

// Post queues a client message. It drops the message once the runner stopped.
func (r *SessionRunner) Post(msg ClientMessage) {
	r.post(runnerCommand{msg: msg})
}

func (r *SessionRunner) post(cmd runnerCommand) {
	select {
	case r.inbox <- cmd:
	case <-r.quit:
	}
}

// Stop ends Run. It must be called exactly once.
func (r *SessionRunner) Stop() {
	close(r.quit)
}

func (r *SessionRunner) Run() {
	deadline := time.NewTimer(time.Hour)
	deadline.Stop()
	render := time.NewTicker(r.renderEvery)
	defer func() {
		deadline.Stop()
		render.Stop()
	}()

	rearm := func() {
		at, ok := r.session.NextDeadline()
		if !ok {
			deadline.Stop()
			return
		}
		deadline.Reset(time.Until(at))
	}

	for {
		select {
		case cmd := <-r.inbox:
			r.handle(cmd, time.Now())
		case <-deadline.C:
			r.advance(time.Now())
		case <-render.C:
			r.render(time.Now())
			continue
		case <-r.quit:
			return
		}
		rearm()
	}
}

func (r *SessionRunner) advance(now time.Time) {
	r.session.Advance(now)
	r.flush()
}

func (r *SessionRunner) render(now time.Time) {
	if r.session.State() != game.StateRunning && r.session.BubbleCount() == 0 {
		return
	}
	r.send(stateMessage(r.session.Snapshot(now)))
}

// handle brings the timeline up to now before applying the command.
func (r *SessionRunner) handle(cmd runnerCommand, now time.Time) {
	r.session.Advance(now)

	switch {
	case cmd.saved != nil:
		r.submitting = false
		ok := cmd.saved.payload.Success
		if ok && cmd.saved.gen == r.gen {
			r.submitted = true
		}
		r.send(ServerMessage{Type: MsgTypeScoreSaved, Payload: cmd.saved.payload})
		if ok {
			r.fetchLeaderboard(defaultLeaderboardLimit)
		}
	case cmd.board != nil:
		b := ranking.NewBoard()
		b.BulkLoad(cmd.board.entries)
		r.send(ServerMessage{Type: MsgTypeLeaderboard, Payload: LeaderboardPayload{Entries: b.Top(cmd.board.limit)}})
	default:
		r.handleMessage(cmd.msg, now)
	}

	r.flush()
}

func (r *SessionRunner) handleMessage(msg ClientMessage, now time.Time) {
	switch msg.Type {
	case MsgTypeStartSession:
		if !r.session.Start(now) {
			r.sendError("session already running")
			return
		}
		r.gen++
		r.submitted = false
		log.Printf("[SESSION] %s started a game", r.playerName())
		r.send(stateMessage(r.session.Snapshot(now)))

	case MsgTypeResetSession:
		r.session.Reset()
		r.gen++
		r.submitted = false
		r.send(stateMessage(r.session.Snapshot(now)))

	case MsgTypeClickBubble:
		r.session.Click(msg.Payload.ID, now)

	case MsgTypeRequestLeaderboard:
		r.fetchLeaderboard(msg.Payload.Limit)

	case MsgTypeSubmitScore:
		r.submit(msg.Payload.Name)

	default:
		log.Printf("[SESSION] Unknown message type from %s: %q", r.playerName(), msg.Type)
		r.sendError("unknown message type")
	}
}

// flush forwards drained session events to the client.
func (r *SessionRunner) flush() {
	for _, ev := range r.session.Drain() {
		r.send(eventMessage(ev))
		switch ev.Type {
		case game.EventPowerupDropped:
			log.Printf("[SESSION] Powerup queue full for %s, dropped %s", r.playerName(), ev.Powerup)
		case game.EventGameOver:
			score := r.session.Score()
			log.Printf("[SESSION] Game over for %s with score %d", r.playerName(), score)
			r.send(ServerMessage{Type: MsgTypeGameOver, Payload: GameOverPayload{Score: score, CanSave: r.canSubmit()}})
		}
	}
}

func (r *SessionRunner) canSubmit() bool {
	return r.session.State() == game.StateOver && r.session.Score() > 0 && !r.submitted
}

func (r *SessionRunner) submit(name string) {
	if r.submitting {
		return
	}
	if !r.canSubmit() {
		r.send(ServerMessage{Type: MsgTypeScoreSaved, Payload: ScoreSavedPayload{Message: "No score to save"}})
		return
	}
	if r.identity.Guest() && strings.TrimSpace(name) == "" {
		r.send(ServerMessage{Type: MsgTypeScoreSaved, Payload: ScoreSavedPayload{Message: "Please enter a name"}})
		return
	}

	r.submitting = true
	score, token, gen := r.session.Score(), r.identity.Token, r.gen
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		result := ScoreSavedPayload{Success: true, Message: "Score saved!"}
		if !r.store.SubmitScore(ctx, name, score, token) {
			result = ScoreSavedPayload{Message: "Failed to save score"}
		}
		r.post(runnerCommand{saved: &savedResult{gen: gen, payload: result}})
	}()
}

func (r *SessionRunner) fetchLeaderboard(limit int) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		r.post(runnerCommand{board: &boardResult{limit: limit, entries: r.store.FetchTopScores(ctx, limit)}})
	}()
}

func (r *SessionRunner) sendError(msg string) {
	r.send(ServerMessage{Type: MsgTypeError, Payload: ErrorPayload{Message: msg}})
}

func (r *SessionRunner) playerName() string {
	if r.identity.Guest() {
		return "guest"
	}
	return r.identity.Name
}
