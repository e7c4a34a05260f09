// Package random provides an agent that picks uniformly among the legal
// moves, useful for fuzzing the bridge and soak-testing a run.
package random

import (
	rand "math/rand/v2"

	"github.com/spirebridge/spirebots/internal/randutil"
	"github.com/spirebridge/spirebots/sdk"
)

// Agent makes random legal decisions
type Agent struct {
	rng *rand.Rand
}

// New creates a random agent seeded from the current time
func New() *Agent {
	return &Agent{rng: randutil.FromTime()}
}

// NewSeeded creates a random agent with a fixed seed for reproducible runs
func NewSeeded(seed uint64) *Agent {
	return &Agent{rng: randutil.New(seed)}
}

// Act mirrors the command priority a human fuzzer would use: play cards or
// end the turn in combat, pick random choices elsewhere, otherwise take
// whatever screen exit is on offer.
func (a *Agent) Act(state *sdk.State) (sdk.Action, bool) {
	switch {
	case state.HasCommand("play"):
		return a.combatAction(state)
	case state.HasCommand("choose"):
		return a.chooseAction(state)
	case state.HasCommand("proceed"):
		return sdk.Proceed(), true
	case state.HasCommand("confirm"):
		return sdk.Confirm(), true
	case state.HasCommand("skip"):
		return sdk.Skip(), true
	case state.HasCommand("leave"):
		return sdk.Leave(), true
	case state.HasCommand("return"):
		return sdk.Return(), true
	case state.HasCommand("cancel"):
		return sdk.Cancel(), true
	case state.HasCommand("end"):
		return sdk.EndTurn(), true
	}
	return sdk.Action{}, false
}

func (a *Agent) combatAction(state *sdk.State) (sdk.Action, bool) {
	hand := items(state, "game_state", "combat_state", "hand")

	// Mostly play cards, sometimes end the turn early
	if len(hand) == 0 || a.rng.IntN(10) >= 7 {
		if state.HasCommand("end") {
			return sdk.EndTurn(), true
		}
		return sdk.Action{}, false
	}

	card := a.rng.IntN(len(hand)) + 1 // hand positions are 1-based
	entry, _ := hand[card-1].(map[string]any)
	if needsTarget, _ := entry["has_target"].(bool); !needsTarget {
		return sdk.PlayCard(card), true
	}

	var targets []int
	for i, m := range items(state, "game_state", "combat_state", "monsters") {
		monster, _ := m.(map[string]any)
		gone, _ := monster["is_gone"].(bool)
		hp, _ := monster["current_hp"].(float64)
		if !gone && hp > 0 {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		if state.HasCommand("end") {
			return sdk.EndTurn(), true
		}
		return sdk.Action{}, false
	}
	return sdk.PlayCardTarget(card, targets[a.rng.IntN(len(targets))]), true
}

func (a *Agent) chooseAction(state *sdk.State) (sdk.Action, bool) {
	n := len(items(state, "game_state", "screen_state", "options"))
	if n == 0 {
		n = len(items(state, "game_state", "screen_state", "cards"))
	}
	if n == 0 {
		n = len(items(state, "game_state", "choice_list"))
	}
	if n == 0 {
		return sdk.Choose(0), true
	}
	return sdk.Choose(a.rng.IntN(n)), true
}

func items(state *sdk.State, path ...string) []any {
	v, ok := state.Get(path...)
	if !ok {
		return nil
	}
	arr, _ := v.([]any)
	return arr
}

// Check it implements the sdk.Agent interface
var _ sdk.Agent = (*Agent)(nil)
