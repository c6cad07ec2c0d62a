package enums

import "strings"

type SwipeAction string

const (
	SwipeActionLike      SwipeAction = "LIKE"
	SwipeActionSuperLike SwipeAction = "SUPERLIKE"
	SwipeActionPass      SwipeAction = "PASS"
)

// IsInterest reports whether the action counts toward mutual interest.
func (a SwipeAction) IsInterest() bool {
	return a == SwipeActionLike || a == SwipeActionSuperLike
}

func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeActionLike, SwipeActionSuperLike, SwipeActionPass:
		return true
	default:
		return false
	}
}

// ParseSwipeAction normalizes raw client input to a known action.
func ParseSwipeAction(raw string) (SwipeAction, bool) {
	action := SwipeAction(strings.ToUpper(strings.TrimSpace(raw)))
	if !action.Valid() {
		return "", false
	}
	return action, true
}
