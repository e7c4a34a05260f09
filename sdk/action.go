package sdk

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAction is returned when an action cannot be encoded
var ErrInvalidAction = errors.New("invalid action")

// Action represents a single command for the bridge. Name is the
// CommunicationMod command word and Args its positional arguments
// (ints or strings). Actions are cheap values built fresh per send.
type Action struct {
	Name string
	Args []any
}

// Command creates an action with the given command word and arguments
func Command(name string, args ...any) Action {
	return Action{Name: name, Args: args}
}

// Encode renders the action as a space-separated command string, e.g.
// "play 1 0". Arguments must be ints or non-empty strings.
func (a Action) Encode() (string, error) {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return "", fmt.Errorf("%w: empty command", ErrInvalidAction)
	}

	parts := make([]string, 0, len(a.Args)+1)
	parts = append(parts, name)

	for i, arg := range a.Args {
		switch v := arg.(type) {
		case int:
			parts = append(parts, strconv.Itoa(v))
		case string:
			if strings.TrimSpace(v) == "" {
				return "", fmt.Errorf("%w: empty argument %d for %q", ErrInvalidAction, i, name)
			}
			parts = append(parts, v)
		default:
			return "", fmt.Errorf("%w: argument %d for %q has unsupported type %T", ErrInvalidAction, i, name, arg)
		}
	}

	return strings.Join(parts, " "), nil
}

// String returns the encoded command, or a placeholder if encoding fails
func (a Action) String() string {
	s, err := a.Encode()
	if err != nil {
		return fmt.Sprintf("<invalid action %q>", a.Name)
	}
	return s
}

// PlayCard plays the card at the given hand position (1-based)
func PlayCard(card int) Action {
	return Command("play", card)
}

// PlayCardTarget plays a card at the given hand position (1-based)
// against a monster (0-based). The mixed indexing is CommunicationMod's.
func PlayCardTarget(card, target int) Action {
	return Command("play", card, target)
}

// EndTurn ends the current combat turn
func EndTurn() Action {
	return Command("end")
}

// UsePotion uses the potion in the given slot (0-based)
func UsePotion(slot int) Action {
	return Command("potion", "use", slot)
}

// UsePotionTarget uses the potion in the given slot (0-based) against a
// monster (0-based)
func UsePotionTarget(slot, target int) Action {
	return Command("potion", "use", slot, target)
}

// DiscardPotion discards the potion in the given slot (0-based)
func DiscardPotion(slot int) Action {
	return Command("potion", "discard", slot)
}

// Choose picks the option at the given index (0-based)
func Choose(option int) Action {
	return Command("choose", option)
}

// ChooseName picks an option by its displayed name
func ChooseName(name string) Action {
	return Command("choose", name)
}

// Proceed advances past the current screen
func Proceed() Action {
	return Command("proceed")
}

// Confirm accepts the current screen's confirmation prompt
func Confirm() Action {
	return Command("confirm")
}

// Skip declines the current screen's offer
func Skip() Action {
	return Command("skip")
}

// Cancel backs out of the current screen
func Cancel() Action {
	return Command("cancel")
}

// Return leaves the current screen, e.g. a shop
func Return() Action {
	return Command("return")
}

// Leave leaves the current room
func Leave() Action {
	return Command("leave")
}

// Wait idles for the given number of frames
func Wait(frames int) Action {
	return Command("wait", frames)
}

// PressKey presses a game key by name, e.g. "confirm"
func PressKey(name string) Action {
	return Command("key", name)
}

// Click performs a left click at the given 1920x1080-relative coordinates
func Click(x, y int) Action {
	return Command("click", "left", x, y)
}

// RequestState asks CommunicationMod to emit a fresh state snapshot
func RequestState() Action {
	return Command("state")
}

// StartGame begins a new run as the given character class. Ascension and
// seed are optional; pass 0 and "" to use the game defaults.
func StartGame(class string, ascension int, seed string) Action {
	args := []any{strings.ToLower(class)}
	if seed != "" {
		args = append(args, ascension, seed)
	} else if ascension > 0 {
		args = append(args, ascension)
	}
	return Action{Name: "start", Args: args}
}
