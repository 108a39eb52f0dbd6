// Package identity classifies incoming boardstate updates as belonging
// to the local user or an opponent. Both the bulk-fetch path and the
// push path go through Classify so the same player is never treated
// inconsistently by different call sites.
package identity

import "github.com/veldt-labs/commandzone/internal/domain"

// Origin says whose boardstate an update describes.
type Origin int

const (
	OriginOpponent Origin = iota
	OriginSelf
)

func (o Origin) String() string {
	if o == OriginSelf {
		return "self"
	}
	return "opponent"
}

// Classify returns OriginSelf iff the update's user ID equals selfID.
// An update with an empty user ID is always an opponent, even when
// selfID is itself empty: the boardstate store's validator rejects
// such updates and they must never land in the self slot.
func Classify(bs domain.Boardstate, selfID string) Origin {
	if bs.User.ID == "" {
		return OriginOpponent
	}
	if bs.User.ID == selfID {
		return OriginSelf
	}
	return OriginOpponent
}
