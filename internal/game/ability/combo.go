package ability

import (
	"slices"
	"time"

	"github.com/udisondev/combatcore/internal/model"
)

// comboChain is the element sequence a user has cast toward a combo.
type comboChain struct {
	elements []model.Element
	lastCast time.Time
}

// advance returns the chain after casting element e at now and the combo
// completed by that cast, if any.
//
// The cast extends the chain when the extended sequence is a prefix of a
// registered combo and now is within that combo's window of the previous
// cast. A completed combo clears the chain. Otherwise tracking restarts at e.
// Among several combos completed at once the highest multiplier wins, then
// the lowest id. Caller holds defsMu for reading.
func (m *Manager) advance(c comboChain, e model.Element, now time.Time) (comboChain, *model.ComboBonus) {
	restart := comboChain{elements: []model.Element{e}, lastCast: now}
	if len(c.elements) == 0 {
		return restart, nil
	}

	ext := append(slices.Clone(c.elements), e)
	since := now.Sub(c.lastCast)

	var (
		extends   bool
		completed *model.ComboBonus
	)
	for _, cb := range m.combos {
		if len(ext) > len(cb.Elements) || since > cb.Window {
			continue
		}
		if !slices.Equal(cb.Elements[:len(ext)], ext) {
			continue
		}
		extends = true
		if len(ext) != len(cb.Elements) {
			continue
		}
		if completed == nil ||
			cb.Multiplier > completed.Multiplier ||
			(cb.Multiplier == completed.Multiplier && cb.ID < completed.ID) {
			completed = cb
		}
	}

	switch {
	case completed != nil:
		return comboChain{}, completed
	case extends:
		return comboChain{elements: ext, lastCast: now}, nil
	default:
		return restart, nil
	}
}
