package main

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mauricedolibois/bubblepop/game"
	"github.com/mauricedolibois/bubblepop/ranking"
)

// Client -> server
const (
	MsgTypeStartSession       = "START_SESSION"
	MsgTypeResetSession       = "RESET_SESSION"
	MsgTypeClickBubble        = "CLICK_BUBBLE"
	MsgTypeRequestLeaderboard = "REQUEST_LEADERBOARD"
	MsgTypeSubmitScore        = "SUBMIT_SCORE"
)

// Server -> client
const (
	MsgTypeWelcome     = "WELCOME"
	MsgTypeState       = "STATE"
	MsgTypeEvent       = "EVENT"
	MsgTypeGameOver    = "GAME_OVER"
	MsgTypeLeaderboard = "LEADERBOARD"
	MsgTypeScoreSaved  = "SCORE_SAVED"
	MsgTypeNewScore    = "NEW_SCORE"
	MsgTypeError       = "ERROR"
)

const defaultLeaderboardLimit = 10

// ClientMessage is every command a client can send. Unused payload fields stay zero.
type ClientMessage struct {
	Type    string        `json:"type" msgpack:"type"`
	Payload ClientPayload `json:"payload" msgpack:"payload"`
}

type ClientPayload struct {
	ID    int64  `json:"id,omitempty" msgpack:"id,omitempty"`
	Limit int    `json:"limit,omitempty" msgpack:"limit,omitempty"`
	Name  string `json:"name,omitempty" msgpack:"name,omitempty"`
}

type ServerMessage struct {
	Type    string      `json:"type" msgpack:"type"`
	Payload interface{} `json:"payload" msgpack:"payload"`
}

type WelcomePayload struct {
	Name  string `json:"name" msgpack:"name"`
	Guest bool   `json:"guest" msgpack:"guest"`
}

type GameOverPayload struct {
	Score   int  `json:"score" msgpack:"score"`
	CanSave bool `json:"canSave" msgpack:"canSave"`
}

type LeaderboardPayload struct {
	Entries []ranking.Entry `json:"entries" msgpack:"entries"`
}

type ScoreSavedPayload struct {
	Success bool   `json:"success" msgpack:"success"`
	Message string `json:"message" msgpack:"message"`
}

type ErrorPayload struct {
	Message string `json:"message" msgpack:"message"`
}

func stateMessage(s game.Snapshot) ServerMessage {
	return ServerMessage{Type: MsgTypeState, Payload: s}
}

func eventMessage(ev game.Event) ServerMessage {
	return ServerMessage{Type: MsgTypeEvent, Payload: ev}
}

// Codec turns messages into websocket frames.
type Codec interface {
	Name() string
	FrameType() int
	Encode(ServerMessage) ([]byte, error)
	Decode([]byte) (ClientMessage, error)
}

type jsonCodec struct{}

func (jsonCodec) Name() string   { return "json" }
func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(m ServerMessage) ([]byte, error) {
	return json.Marshal(m)
}

func (jsonCodec) Decode(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if len(b) == 0 {
		return m, fmt.Errorf("empty message")
	}
	err := json.Unmarshal(b, &m)
	return m, err
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(m ServerMessage) ([]byte, error) {
	return msgpack.Marshal(&m)
}

func (msgpackCodec) Decode(b []byte) (ClientMessage, error) {
	var m ClientMessage
	if len(b) == 0 {
		return m, fmt.Errorf("empty message")
	}
	err := msgpack.Unmarshal(b, &m)
	return m, err
}

// codecFor picks the wire codec from the ?codec= query value, defaulting to JSON.
func codecFor(name string) Codec {
	if name == "msgpack" {
		return msgpackCodec{}
	}
	return jsonCodec{}
}
