package feed

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type ReactionKind int

const (
	ReactionLike ReactionKind = iota + 1
	ReactionLove
	ReactionHaha
	ReactionWow
	ReactionSad
	ReactionAngry
)

// ReactionKinds lists every kind in declaration order, which is also the tie-break order for display.
var ReactionKinds = []ReactionKind{
	ReactionLike,
	ReactionLove,
	ReactionHaha,
	ReactionWow,
	ReactionSad,
	ReactionAngry,
}

var ErrUnknownReactionKind = errors.New("unknown reaction kind")

var reactionKeys = map[ReactionKind]string{
	ReactionLike:  "like",
	ReactionLove:  "love",
	ReactionHaha:  "haha",
	ReactionWow:   "wow",
	ReactionSad:   "sad",
	ReactionAngry: "angry",
}

var reactionGlyphs = map[ReactionKind]string{
	ReactionLike:  "👍",
	ReactionLove:  "❤️",
	ReactionHaha:  "😆",
	ReactionWow:   "😮",
	ReactionSad:   "😢",
	ReactionAngry: "😡",
}

func (kind ReactionKind) Valid() bool {
	_, ok := reactionKeys[kind]
	return ok
}

// Code is the stable numeric value used on the wire.
func (kind ReactionKind) Code() int {
	return int(kind)
}

// Key is the canonical lower-case name used as the summary map key.
func (kind ReactionKind) Key() string {
	return reactionKeys[kind]
}

func (kind ReactionKind) Label() string {
	key := reactionKeys[kind]
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func (kind ReactionKind) Glyph() string {
	return reactionGlyphs[kind]
}

func (kind ReactionKind) String() string {
	if !kind.Valid() {
		return fmt.Sprintf("ReactionKind(%d)", int(kind))
	}
	return kind.Key()
}

func ReactionKindFromCode(code int) (ReactionKind, error) {
	kind := ReactionKind(code)
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownReactionKind, code)
	}
	return kind, nil
}

// ParseReactionKind accepts a name in any casing ("like", "Like", "LIKE") or a numeric code.
// Every value crossing the API boundary goes through here.
func ParseReactionKind(value string) (ReactionKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))

	for kind, key := range reactionKeys {
		if key == normalized {
			return kind, nil
		}
	}

	if code, err := strconv.Atoi(normalized); err == nil {
		return ReactionKindFromCode(code)
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownReactionKind, value)
}

// ReactionState is the current user's view of one post's reactions.
type ReactionState struct {
	UserReaction   *ReactionKind
	UserReactionId string
	Summary        map[ReactionKind]int
	Total          int
}

func (state ReactionState) Clone() ReactionState {
	clone := ReactionState{
		UserReactionId: state.UserReactionId,
		Summary:        make(map[ReactionKind]int, len(state.Summary)),
		Total:          state.Total,
	}
	if state.UserReaction != nil {
		kind := *state.UserReaction
		clone.UserReaction = &kind
	}
	for kind, count := range state.Summary {
		clone.Summary[kind] = count
	}

	return clone
}

func (state ReactionState) Reacting() bool {
	return state.UserReaction != nil
}

func (state ReactionState) Validate() error {
	sum := 0
	for kind, count := range state.Summary {
		if count <= 0 {
			return fmt.Errorf("reaction summary holds non-positive count %d for %s", count, kind)
		}
		sum += count
	}

	if sum != state.Total {
		return fmt.Errorf("reaction total %d does not match summary sum %d", state.Total, sum)
	}

	if (state.UserReaction != nil) != (state.UserReactionId != "") {
		return errors.New("user reaction and reaction id must be set together")
	}

	return nil
}

func (state *ReactionState) increment(kind ReactionKind) {
	if state.Summary == nil {
		state.Summary = make(map[ReactionKind]int)
	}
	state.Summary[kind]++
	state.Total++
}

func (state *ReactionState) decrement(kind ReactionKind) {
	count := state.Summary[kind]
	if count <= 0 {
		return
	}

	if count == 1 {
		delete(state.Summary, kind)
	} else {
		state.Summary[kind] = count - 1
	}
	state.Total--
}
