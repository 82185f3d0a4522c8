package game

import "time"

// EventType describes something that happened inside a session.
type EventType string

const (
	EventBubbleSpawned    EventType = "BUBBLE_SPAWNED"
	EventBubblePopped     EventType = "BUBBLE_POPPED"
	EventBubbleMissed     EventType = "BUBBLE_MISSED"
	EventBubbleRemoved    EventType = "BUBBLE_REMOVED"
	EventLifeGained       EventType = "LIFE_GAINED"
	EventLifeLost         EventType = "LIFE_LOST"
	EventPowerupActivated EventType = "POWERUP_ACTIVATED"
	EventPowerupQueued    EventType = "POWERUP_QUEUED"
	EventPowerupDropped   EventType = "POWERUP_DROPPED"
	EventPowerupExpired   EventType = "POWERUP_EXPIRED"
	EventGameOver         EventType = "GAME_OVER"
)

// Event is emitted by session commands and drained by the owner.
type Event struct {
	Type     EventType   `json:"type" msgpack:"type"`
	At       time.Time   `json:"at" msgpack:"at"`
	BubbleID int64       `json:"bubbleId,omitempty" msgpack:"bubbleId,omitempty"`
	Kind     BubbleKind  `json:"kind,omitempty" msgpack:"kind,omitempty"`
	Powerup  PowerupKind `json:"powerup,omitempty" msgpack:"powerup,omitempty"`
	Points   int         `json:"points,omitempty" msgpack:"points,omitempty"`
	Score    int         `json:"score" msgpack:"score"`
	Lives    int         `json:"lives" msgpack:"lives"`
}
