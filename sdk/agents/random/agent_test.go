package random

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirebridge/spirebots/sdk"
)

const combatDoc = `{
	"in_game": true,
	"ready_for_command": true,
	"available_commands": ["play", "end", "potion"],
	"game_state": {
		"screen_type": "NONE",
		"combat_state": {
			"hand": [
				{"name": "Strike", "has_target": true},
				{"name": "Defend", "has_target": false},
				{"name": "Bash", "has_target": true}
			],
			"monsters": [
				{"name": "Cultist", "current_hp": 48, "is_gone": false},
				{"name": "Jaw Worm", "current_hp": 0, "is_gone": true}
			]
		}
	}
}`

func TestCombatActionsAreLegal(t *testing.T) {
	state := parseState(t, combatDoc)
	agent := NewSeeded(1)

	for i := 0; i < 200; i++ {
		action, ok := agent.Act(state)
		require.True(t, ok)

		cmd, err := action.Encode()
		require.NoError(t, err)

		parts := strings.Fields(cmd)
		switch parts[0] {
		case "end":
			assert.Len(t, parts, 1)
		case "play":
			// Hand positions are 1-based; the only live monster is index 0
			require.GreaterOrEqual(t, len(parts), 2)
			assert.Contains(t, []string{"1", "2", "3"}, parts[1])
			if len(parts) == 3 {
				assert.Equal(t, "0", parts[2], "targeted plays must aim at a live monster")
			}
		default:
			t.Fatalf("unexpected combat command %q", cmd)
		}
	}
}

func TestCombatEndsTurnWithEmptyHand(t *testing.T) {
	state := parseState(t, `{
		"in_game": true,
		"available_commands": ["play", "end"],
		"game_state": {"combat_state": {"hand": []}}
	}`)

	action, ok := NewSeeded(1).Act(state)
	require.True(t, ok)
	assert.Equal(t, "end", action.String())
}

func TestCombatEndsTurnWhenNoTargets(t *testing.T) {
	state := parseState(t, `{
		"in_game": true,
		"available_commands": ["play", "end"],
		"game_state": {
			"combat_state": {
				"hand": [{"name": "Strike", "has_target": true}],
				"monsters": [{"name": "Cultist", "current_hp": 0, "is_gone": true}]
			}
		}
	}`)
	agent := NewSeeded(1)

	for i := 0; i < 50; i++ {
		action, ok := agent.Act(state)
		require.True(t, ok)
		assert.Equal(t, "end", action.String())
	}
}

func TestChooseStaysInRange(t *testing.T) {
	state := parseState(t, `{
		"in_game": true,
		"available_commands": ["choose"],
		"game_state": {
			"screen_type": "EVENT",
			"screen_state": {"options": [{"text": "a"}, {"text": "b"}, {"text": "c"}]}
		}
	}`)
	agent := NewSeeded(7)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		action, ok := agent.Act(state)
		require.True(t, ok)

		cmd := action.String()
		assert.Contains(t, []string{"choose 0", "choose 1", "choose 2"}, cmd)
		seen[cmd] = true
	}
	assert.Len(t, seen, 3, "all options should come up over 200 draws")
}

func TestChooseWithoutOptionList(t *testing.T) {
	state := parseState(t, `{"in_game": true, "available_commands": ["choose"]}`)

	action, ok := NewSeeded(1).Act(state)
	require.True(t, ok)
	assert.Equal(t, "choose 0", action.String())
}

func TestScreenExits(t *testing.T) {
	tests := []struct {
		commands string
		expected string
	}{
		{`["proceed"]`, "proceed"},
		{`["confirm"]`, "confirm"},
		{`["skip"]`, "skip"},
		{`["leave"]`, "leave"},
		{`["return"]`, "return"},
		{`["cancel"]`, "cancel"},
	}

	agent := NewSeeded(1)
	for _, test := range tests {
		state := parseState(t, `{"in_game": true, "available_commands": `+test.commands+`}`)
		action, ok := agent.Act(state)
		require.True(t, ok, "commands: %s", test.commands)
		assert.Equal(t, test.expected, action.String())
	}
}

func TestNothingApplicable(t *testing.T) {
	state := parseState(t, `{"in_game": false, "available_commands": ["state"]}`)
	_, ok := NewSeeded(1).Act(state)
	assert.False(t, ok)
}

func TestSeededAgentsAgree(t *testing.T) {
	state := parseState(t, combatDoc)
	a, b := NewSeeded(42), NewSeeded(42)

	for i := 0; i < 50; i++ {
		actionA, okA := a.Act(state)
		actionB, okB := b.Act(state)
		require.Equal(t, okA, okB)
		assert.Equal(t, actionA.String(), actionB.String())
	}
}

func parseState(t *testing.T, doc string) *sdk.State {
	t.Helper()
	state, err := sdk.NewState([]byte(doc), 1)
	require.NoError(t, err)
	return state
}
