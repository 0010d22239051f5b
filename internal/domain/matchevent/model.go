package matchevent

import (
	"errors"
	"fmt"
	"time"

	"github.com/campus-sports/livematch/internal/domain/fixture"
)

var (
	ErrInvalidEvent            = errors.New("invalid match event")
	ErrUnknownPlayer           = errors.New("player is not on the team roster")
	ErrInvalidSubstitution     = errors.New("invalid substitution")
	ErrInconsistentCardHistory = errors.New("inconsistent card history")
)

const (
	MinMinute = 0
	MaxMinute = 120
)

// Kind enumerates the event vocabulary recorded by live-match operators.
type Kind string

const (
	KindGoal           Kind = "goal"
	KindYellowCard     Kind = "yellow-card"
	KindRedCard        Kind = "red-card"
	KindSubstitution   Kind = "substitution"
	KindCorner         Kind = "corner"
	KindOffside        Kind = "offside"
	KindPenaltyAwarded Kind = "penalty-awarded"
	KindPenaltyMissed  Kind = "penalty-missed"
	KindPenaltySaved   Kind = "penalty-saved"
	KindOwnGoal        Kind = "own-goal"
	KindVARDecision    Kind = "var-decision"
	KindInjury         Kind = "injury"
	KindKickoff        Kind = "kickoff"
	KindHalftime       Kind = "halftime"
	KindFulltime       Kind = "fulltime"
)

var allKinds = map[Kind]struct{}{
	KindGoal: {}, KindYellowCard: {}, KindRedCard: {}, KindSubstitution: {},
	KindCorner: {}, KindOffside: {}, KindPenaltyAwarded: {}, KindPenaltyMissed: {},
	KindPenaltySaved: {}, KindOwnGoal: {}, KindVARDecision: {}, KindInjury: {},
	KindKickoff: {}, KindHalftime: {}, KindFulltime: {},
}

func (k Kind) Valid() bool {
	_, ok := allKinds[k]
	return ok
}

// PhaseMarker reports whether the kind marks a match phase rather than a
// team action. Phase markers carry no team side and no player references.
func (k Kind) PhaseMarker() bool {
	switch k {
	case KindKickoff, KindHalftime, KindFulltime:
		return true
	default:
		return false
	}
}

type GoalType string

const (
	GoalTypeRegular  GoalType = "regular"
	GoalTypePenalty  GoalType = "penalty"
	GoalTypeFreeKick GoalType = "free-kick"
	GoalTypeHeader   GoalType = "header"
	GoalTypeOwnGoal  GoalType = "own-goal"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeRegular, GoalTypePenalty, GoalTypeFreeKick, GoalTypeHeader, GoalTypeOwnGoal:
		return true
	default:
		return false
	}
}

type CardType string

const (
	CardTypeSecondYellow CardType = "second-yellow"
	CardTypeStraightRed  CardType = "straight-red"
)

// PlayerRef points at a rostered player by id, or carries a free-text name
// for a player not yet on the roster (temporary reference).
type PlayerRef struct {
	PlayerID string
	Name     string
}

func (r PlayerRef) Rostered() bool {
	return r.PlayerID != ""
}

func (r PlayerRef) Empty() bool {
	return r.PlayerID == "" && r.Name == ""
}

// Same reports whether two refs identify the same player. Rostered refs
// compare by id; two temporary refs compare by name.
func (r PlayerRef) Same(other PlayerRef) bool {
	if r.Rostered() || other.Rostered() {
		return r.PlayerID == other.PlayerID && r.PlayerID != ""
	}
	return r.Name == other.Name && r.Name != ""
}

type GoalDetail struct {
	Scorer PlayerRef
	Assist *PlayerRef
	Type   GoalType
}

type SubstitutionDetail struct {
	PlayerOut PlayerRef
	PlayerIn  PlayerRef
	Injury    bool
}

type CardDetail struct {
	Player PlayerRef
	// Type is set for red cards only: second-yellow or straight-red.
	Type CardType
}

// Event is one recorded timeline entry. Exactly one of the detail fields is
// set, matching the kind; Validate enforces that shape.
type Event struct {
	ID           string
	Kind         Kind
	Team         fixture.Side
	Minute       int
	InjuryTime   bool
	Commentary   string
	Goal         *GoalDetail
	Substitution *SubstitutionDetail
	Card         *CardDetail
	RecordedAt   time.Time
}

// Validate performs the structural checks that do not need fixture context:
// kind shape, minute range, team side presence and per-kind detail fields.
// Roster membership and lineup-dependent rules are validated by the ledger.
func (e Event) Validate() error {
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if e.Minute < MinMinute || e.Minute > MaxMinute {
		return fmt.Errorf("%w: minute %d out of range [%d,%d]", ErrInvalidEvent, e.Minute, MinMinute, MaxMinute)
	}

	if e.Kind.PhaseMarker() {
		if e.Team != "" {
			return fmt.Errorf("%w: %s marker cannot carry a team side", ErrInvalidEvent, e.Kind)
		}
		if e.Goal != nil || e.Substitution != nil || e.Card != nil {
			return fmt.Errorf("%w: %s marker cannot carry event details", ErrInvalidEvent, e.Kind)
		}
		return nil
	}

	if !e.Team.Valid() {
		return fmt.Errorf("%w: team side must be home or away, got %q", ErrInvalidEvent, e.Team)
	}

	switch e.Kind {
	case KindGoal, KindOwnGoal:
		if e.Substitution != nil || e.Card != nil {
			return fmt.Errorf("%w: %s cannot carry substitution or card details", ErrInvalidEvent, e.Kind)
		}
		if e.Goal == nil {
			return fmt.Errorf("%w: %s requires goal details", ErrInvalidEvent, e.Kind)
		}
		if e.Goal.Scorer.Empty() {
			return fmt.Errorf("%w: %s requires a scorer", ErrInvalidEvent, e.Kind)
		}
		if !e.Goal.Type.Valid() {
			return fmt.Errorf("%w: unknown goal type %q", ErrInvalidEvent, e.Goal.Type)
		}
		if e.Goal.Assist != nil {
			if e.Goal.Assist.Empty() {
				return fmt.Errorf("%w: assist reference cannot be empty", ErrInvalidEvent)
			}
			if e.Goal.Assist.Same(e.Goal.Scorer) {
				return fmt.Errorf("%w: scorer and assist must be distinct players", ErrInvalidEvent)
			}
		}
	case KindSubstitution:
		if e.Goal != nil || e.Card != nil {
			return fmt.Errorf("%w: substitution cannot carry goal or card details", ErrInvalidEvent)
		}
		if e.Substitution == nil {
			return fmt.Errorf("%w: substitution requires player-out and player-in", ErrInvalidEvent)
		}
		if e.Substitution.PlayerOut.Empty() || e.Substitution.PlayerIn.Empty() {
			return fmt.Errorf("%w: substitution requires both player references", ErrInvalidEvent)
		}
		if e.Substitution.PlayerOut.Same(e.Substitution.PlayerIn) {
			return fmt.Errorf("%w: player cannot replace themselves", ErrInvalidSubstitution)
		}
	case KindYellowCard, KindRedCard:
		if e.Goal != nil || e.Substitution != nil {
			return fmt.Errorf("%w: card event cannot carry goal or substitution details", ErrInvalidEvent)
		}
		if e.Card == nil || e.Card.Player.Empty() {
			return fmt.Errorf("%w: card event requires a player", ErrInvalidEvent)
		}
		if e.Kind == KindRedCard {
			if e.Card.Type != CardTypeSecondYellow && e.Card.Type != CardTypeStraightRed {
				return fmt.Errorf("%w: red card type must be %s or %s", ErrInvalidEvent, CardTypeSecondYellow, CardTypeStraightRed)
			}
		} else if e.Card.Type != "" {
			return fmt.Errorf("%w: yellow card cannot carry a card type", ErrInvalidEvent)
		}
	default:
		if e.Goal != nil || e.Substitution != nil || e.Card != nil {
			return fmt.Errorf("%w: %s cannot carry event details", ErrInvalidEvent, e.Kind)
		}
	}

	return nil
}

// PlayerRefs lists every player reference the event carries, all of which
// belong to the event's declared team.
func (e Event) PlayerRefs() []PlayerRef {
	var refs []PlayerRef
	if e.Goal != nil {
		refs = append(refs, e.Goal.Scorer)
		if e.Goal.Assist != nil {
			refs = append(refs, *e.Goal.Assist)
		}
	}
	if e.Substitution != nil {
		refs = append(refs, e.Substitution.PlayerOut, e.Substitution.PlayerIn)
	}
	if e.Card != nil {
		refs = append(refs, e.Card.Player)
	}
	return refs
}
