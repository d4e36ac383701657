package cards

import "sync"

// Visibility tracks which card balances the user chose to reveal.
// Balances start hidden. It stores nothing about the cards themselves.
type Visibility struct {
	mu      sync.Mutex
	visible map[string]bool
}

// NewVisibility returns a Visibility with every balance hidden.
func NewVisibility() *Visibility {
	return &Visibility{visible: make(map[string]bool)}
}

// Toggle flips the state for cardID and returns the new state.
func (v *Visibility) Toggle(cardID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible[cardID] = !v.visible[cardID]
	return v.visible[cardID]
}

// Visible reports whether the balance of cardID is shown.
func (v *Visibility) Visible(cardID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible[cardID]
}
