package main

import (
	"context"
	"log"
)

// SessionManager tracks connected clients, gives each its own SessionRunner
// and fans cross-pod score announcements out to everyone.
type SessionManager struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	announce   chan ScoreAnnouncement
	store      ScoreStore
	cfg        Config
	done       chan struct{}
}

func NewSessionManager(cfg Config, store ScoreStore) *SessionManager {
	return &SessionManager{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		announce:   make(chan ScoreAnnouncement, 16),
		store:      store,
		cfg:        cfg,
		done:       make(chan struct{}),
	}
}

// join hands c to Run. It reports false once Run has returned.
func (m *SessionManager) join(c *Client) bool {
	select {
	case m.register <- c:
		return true
	case <-m.done:
		return false
	}
}

// leave hands c back to Run, or returns at once after shutdown.
func (m *SessionManager) leave(c *Client) {
	select {
	case m.unregister <- c:
	case <-m.done:
	}
}

// newClientRunner builds the runner that owns c's game session.
func (m *SessionManager) newClientRunner(c *Client) *SessionRunner {
	return NewSessionRunner(m.cfg.Tuning, m.store, c.identity, m.cfg.RenderEvery, c.enqueue)
}

// SubscribeToScoreAnnouncements forwards NEW_SCORE announcements from every pod into Run.
func (m *SessionManager) SubscribeToScoreAnnouncements(ctx context.Context) {
	SubscribeToScores(ctx, func(a ScoreAnnouncement) {
		select {
		case m.announce <- a:
		case <-ctx.Done():
		}
	})
}

func (m *SessionManager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case client := <-m.register:
			m.clients[client] = true
			go client.runner.Run()
			client.enqueue(ServerMessage{
				Type:    MsgTypeWelcome,
				Payload: WelcomePayload{Name: client.identity.Name, Guest: client.identity.Guest()},
			})
			log.Printf("[WS] Client connected: %s (%d online, codec %s)", client.displayName(), len(m.clients), client.codec.Name())

		case client := <-m.unregister:
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				client.runner.Stop()
				close(client.done)
				log.Printf("[WS] Client disconnected: %s (%d online)", client.displayName(), len(m.clients))
			}

		case a := <-m.announce:
			msg := ServerMessage{Type: MsgTypeNewScore, Payload: a}
			for client := range m.clients {
				client.enqueue(msg)
			}

		case <-ctx.Done():
			for client := range m.clients {
				client.runner.Stop()
				close(client.done)
				delete(m.clients, client)
			}
			return
		}
	}
}
