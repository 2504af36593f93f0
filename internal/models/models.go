package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Inbound event types
const (
	EventJoinRoom           = "join_room"
	EventNewSentenceRequest = "new_sentence_request"
	EventProgressUpdate     = "progress_update"
	EventRaceFinished       = "race_finished"
)

// Outbound event types
const (
	EventUpdateProgress = "update_progress"
	EventNewSentence    = "new_sentence"
	EventCountdown      = "countdown"
	EventRaceStarted    = "race_started"
	EventRaceResult     = "race_finished"
	EventLateFinish     = "late_finish"
	EventLevelUpdate    = "level_update"
	EventError          = "error"
)

// Message is the inbound WebSocket envelope. Data is decoded into the
// payload struct matching Type; unknown or malformed payloads are dropped.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"timestamp,omitempty"`
}

type JoinPayload struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

type RaceRequestPayload struct {
	Room     string `json:"room"`
	Sentence string `json:"sentence"`
	Level    string `json:"level,omitempty"`
}

// FlexFloat accepts a JSON number whether or not the client quoted it.
// Anything else fails the whole payload, which callers drop.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if trimmed == "" || trimmed == "null" {
		return fmt.Errorf("not a number: %q", string(data))
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", string(data))
	}
	*f = FlexFloat(value)
	return nil
}

// ProgressPayload carries self-reported progress.
type ProgressPayload struct {
	Room     string    `json:"room"`
	Username string    `json:"username"`
	Progress FlexFloat `json:"progress"`
	WPM      *float64  `json:"wpm,omitempty"`
}

type FinishPayload struct {
	Room     string   `json:"room"`
	Username string   `json:"username"`
	Text     string   `json:"text"`
	Time     *float64 `json:"time,omitempty"`
}

// OutboundMessage is the envelope written back to clients.
type OutboundMessage struct {
	Type   string    `json:"type"`
	RoomID string    `json:"room_id,omitempty"`
	Data   any       `json:"data,omitempty"`
	Time   time.Time `json:"timestamp"`
}

// ProgressSnapshot is the full per-player progress map for a room. The
// whole map is sent on every accepted update so an observer can rebuild
// room state from the latest broadcast alone.
type ProgressSnapshot struct {
	Players map[string]float64 `json:"players"`
}

type NewSentenceData struct {
	Sentence string  `json:"sentence"`
	StartAt  float64 `json:"start_at"` // unix seconds, fractional
}

type CountdownData struct {
	StartAt float64 `json:"start_at"`
	Seconds int     `json:"from"`
}

type RaceResult struct {
	Username string  `json:"username"`
	WPM      int     `json:"wpm"`
	Accuracy int     `json:"accuracy"`
	Time     float64 `json:"time"`
	Winner   string  `json:"winner"`
}

type LateFinishData struct {
	Username string `json:"username"`
}

// LevelUpdateData is addressed to the finishing connection only.
type LevelUpdateData struct {
	Level       string `json:"level"`
	Reward      string `json:"reward"`
	Description string `json:"description"`
	LeveledUp   bool   `json:"leveled_up"`
	Outcome     string `json:"outcome,omitempty"`
}

// PendingUpgrade is a plan-upgrade request stored on a profile when a
// promotion is withheld behind the plan gate.
type PendingUpgrade struct {
	Plan   string `bson:"plan" json:"plan"`
	Amount int    `bson:"amount" json:"amount"`
	Status string `bson:"status" json:"status"`
}

// UserProfile is the cross-race progression state for one user. The
// multiplayer core reads and writes it through a store collaborator.
type UserProfile struct {
	Username    string              `bson:"username" json:"username"`
	Plan        string              `bson:"plan" json:"plan"`
	Level       string              `bson:"level" json:"level"`
	Beaten      map[string][]string `bson:"beaten" json:"beaten"`
	RacesPlayed int                 `bson:"races_played" json:"races_played"`
	TotalWPM    int                 `bson:"total_wpm" json:"total_wpm"`
	AvgWPM      float64             `bson:"avg_wpm" json:"avg_wpm"`
	Wins        int                 `bson:"wins" json:"wins"`
	Pending     *PendingUpgrade     `bson:"pending_upgrade,omitempty" json:"pending_upgrade,omitempty"`
}

type LevelRequirement struct {
	WinsNeeded int `bson:"wins_needed" json:"wins_needed"`
	MinWPM     int `bson:"min_wpm" json:"min_wpm"`
}

// LevelDefinition is read-only configuration for one skill level. Next
// is empty on the terminal level. Range holds the inclusive average-WPM
// band used by the stats recalibration path.
type LevelDefinition struct {
	Name        string           `bson:"name" json:"name"`
	Order       int              `bson:"order" json:"order"`
	Sentences   []string         `bson:"sentences" json:"sentences"`
	Requirement LevelRequirement `bson:"requirement" json:"requirement"`
	Next        string           `bson:"next,omitempty" json:"next,omitempty"`
	Range       [2]float64       `bson:"range" json:"range"`
	Reward      string           `bson:"reward" json:"reward"`
	Description string           `bson:"description" json:"description"`
}
