package boardstate

import "github.com/veldt-labs/commandzone/internal/domain"

// Draw moves the top card of the library to the end of the hand and
// returns the new boardstate for submission as a single atomic
// mutation. It never mutates its input: the zones involved are
// reallocated so an in-flight render of the old value stays intact,
// and the card never transits through a state where it is in neither
// zone. An empty library refuses with ErrEmptyLibrary and leaves
// everything untouched.
func Draw(bs domain.Boardstate) (domain.Boardstate, error) {
	if len(bs.Library) == 0 {
		return domain.Boardstate{}, ErrEmptyLibrary
	}
	card := bs.Library[0]
	out := bs
	out.Library = append([]domain.Card(nil), bs.Library[1:]...)
	out.Hand = append(append([]domain.Card(nil), bs.Hand...), card)
	return out, nil
}
