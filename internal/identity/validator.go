package identity

import (
	"fmt"
	"regexp"
	"strings"
)

// MinGamesForPrediction is the minimum distinct games a player must have in
// the lookback window before predictions are generated for them.
const MinGamesForPrediction = 3

var teamCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// placeholderNames are synthetic rows the feed emits when a roster slot is
// unfilled. "PG Player" style names use the position as a first name.
var placeholderNames = map[string]bool{
	"unknown":   true,
	"tbd":       true,
	"pg player": true,
	"sg player": true,
	"sf player": true,
	"pf player": true,
	"c player":  true,
}

// Player is a provider row reduced to the fields identity checks care about.
type Player struct {
	ID        int64
	FirstName string
	LastName  string
	FullName  string
	Team      string
	Games     int
}

// Roster answers whether a player ID belongs to the canonical active roster.
type Roster interface {
	Contains(playerID int64) bool
}

// RosterSet is an in-memory Roster built from the provider's active list.
type RosterSet map[int64]bool

// Contains reports membership.
func (r RosterSet) Contains(playerID int64) bool { return r[playerID] }

// ValidationError explains why a player row was rejected. Rejections are
// per-player: the run logs them and moves on.
type ValidationError struct {
	PlayerID int64
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("player %d rejected: %s", e.PlayerID, e.Reason)
}

// Validator screens provider player rows before they enter the stats store.
type Validator struct {
	roster Roster
}

// NewValidator creates a validator against a roster snapshot.
func NewValidator(roster Roster) *Validator {
	return &Validator{roster: roster}
}

// Validate applies every identity rule to a player row. It returns the
// display name to store on success, or a *ValidationError naming the first
// failed rule.
func (v *Validator) Validate(p Player) (string, error) {
	if p.ID <= 0 {
		return "", &ValidationError{PlayerID: p.ID, Reason: "invalid player id"}
	}

	if !v.roster.Contains(p.ID) {
		return "", &ValidationError{PlayerID: p.ID, Reason: "not on active roster"}
	}

	name := DisplayName(p)
	if name == "" {
		return "", &ValidationError{PlayerID: p.ID, Reason: "no usable name"}
	}
	if placeholderNames[strings.ToLower(name)] {
		return "", &ValidationError{PlayerID: p.ID, Reason: fmt.Sprintf("placeholder name %q", name)}
	}

	if !teamCodePattern.MatchString(p.Team) {
		return "", &ValidationError{PlayerID: p.ID, Reason: fmt.Sprintf("malformed team code %q", p.Team)}
	}

	if p.Games < MinGamesForPrediction {
		return "", &ValidationError{
			PlayerID: p.ID,
			Reason:   fmt.Sprintf("only %d games in window, need %d", p.Games, MinGamesForPrediction),
		}
	}

	return name, nil
}

// DisplayName builds the stored display name: the feed's full name when
// present, otherwise first and last joined.
func DisplayName(p Player) string {
	if full := strings.TrimSpace(p.FullName); full != "" {
		return full
	}

	first := strings.TrimSpace(p.FirstName)
	last := strings.TrimSpace(p.LastName)
	if first == "" && last == "" {
		return ""
	}
	if first == "" {
		return last
	}
	if last == "" {
		return first
	}
	return first + " " + last
}
