package sdk

import (
	"encoding/json"
	"fmt"
)

// Screen types reported in game_state.screen_type
const (
	ScreenEvent        = "EVENT"
	ScreenChest        = "CHEST"
	ScreenShopRoom     = "SHOP_ROOM"
	ScreenRest         = "REST"
	ScreenCardReward   = "CARD_REWARD"
	ScreenCombatReward = "COMBAT_REWARD"
	ScreenMap          = "MAP"
	ScreenBossReward   = "BOSS_REWARD"
	ScreenShop         = "SHOP_SCREEN"
	ScreenGrid         = "GRID"
	ScreenHandSelect   = "HAND_SELECT"
	ScreenGameOver     = "GAME_OVER"
	ScreenComplete     = "COMPLETE"
	ScreenNone         = "NONE"
)

// State is one decoded game snapshot from the bridge. States are immutable:
// the client replaces its cached *State wholesale when a fresh snapshot
// arrives and hands the same pointer back while the snapshot is unchanged.
type State struct {
	raw       []byte
	doc       map[string]any
	timestamp float64
}

// NewState parses a snapshot document received at the given timestamp.
// Most callers get states from Client.GetState; NewState exists for
// tooling that replays recorded documents.
func NewState(doc []byte, timestamp float64) (*State, error) {
	var tree map[string]any
	if err := json.Unmarshal(doc, &tree); err != nil {
		return nil, fmt.Errorf("parse state document: %w", err)
	}
	raw := make([]byte, len(doc))
	copy(raw, doc)
	return &State{raw: raw, doc: tree, timestamp: timestamp}, nil
}

// Timestamp returns the bridge's last_update marker for this snapshot
func (s *State) Timestamp() float64 {
	return s.timestamp
}

// Raw returns the snapshot document bytes. Callers must not modify them.
func (s *State) Raw() []byte {
	return s.raw
}

// Get walks the document by key path and returns the value at the leaf
func (s *State) Get(path ...string) (any, bool) {
	if s == nil || len(path) == 0 {
		return nil, false
	}
	var cur any = s.doc
	for _, key := range path {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Bool returns the boolean at the given key path
func (s *State) Bool(path ...string) (bool, bool) {
	v, ok := s.Get(path...)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Float returns the number at the given key path
func (s *State) Float(path ...string) (float64, bool) {
	v, ok := s.Get(path...)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Int returns the number at the given key path truncated to an int
func (s *State) Int(path ...string) (int, bool) {
	f, ok := s.Float(path...)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String returns the string at the given key path
func (s *State) String(path ...string) (string, bool) {
	v, ok := s.Get(path...)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Strings returns the string array at the given key path, or nil
func (s *State) Strings(path ...string) []string {
	v, ok := s.Get(path...)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

// InGame reports whether a run is in progress
func (s *State) InGame() bool {
	b, _ := s.Bool("in_game")
	return b
}

// ReadyForCommand reports whether the game will accept a command now
func (s *State) ReadyForCommand() bool {
	b, _ := s.Bool("ready_for_command")
	return b
}

// AvailableCommands returns the command words the game accepts right now
func (s *State) AvailableCommands() []string {
	return s.Strings("available_commands")
}

// HasCommand reports whether the given command word is currently available
func (s *State) HasCommand(name string) bool {
	for _, cmd := range s.AvailableCommands() {
		if cmd == name {
			return true
		}
	}
	return false
}

// ScreenType returns the current screen type, e.g. "MAP" or "EVENT".
// Returns "" when no run is in progress or the field is absent.
func (s *State) ScreenType() string {
	str, _ := s.String("game_state", "screen_type")
	return str
}

// CurrentHP returns the player's current hit points
func (s *State) CurrentHP() (int, bool) {
	return s.Int("game_state", "current_hp")
}

// MaxHP returns the player's maximum hit points
func (s *State) MaxHP() (int, bool) {
	return s.Int("game_state", "max_hp")
}

// Floor returns the current floor number
func (s *State) Floor() (int, bool) {
	return s.Int("game_state", "floor")
}

// Act returns the current act number
func (s *State) Act() (int, bool) {
	return s.Int("game_state", "act")
}

// Gold returns the player's gold
func (s *State) Gold() (int, bool) {
	return s.Int("game_state", "gold")
}
