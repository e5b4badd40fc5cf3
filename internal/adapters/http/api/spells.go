package api

import "net/http"

type spellResponse struct {
	ID       string  `json:"id"`
	Gesture  string  `json:"gesture"`
	MinScore float64 `json:"min_score"`
	Damage   float64 `json:"damage"`
	Speed    float64 `json:"speed"`
	Effect   string  `json:"effect,omitempty"`
}

// SpellsHandler lists the spell catalogue.
type SpellsHandler struct {
	catalogue Catalogue
}

// NewSpellsHandler creates a new spells handler.
func NewSpellsHandler(catalogue Catalogue) *SpellsHandler {
	return &SpellsHandler{catalogue: catalogue}
}

// HandleSpells handles GET /spells requests. Entries are returned in
// arbitration priority order.
func (h *SpellsHandler) HandleSpells(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	out := []spellResponse{}
	if h.catalogue != nil {
		for _, d := range h.catalogue.All() {
			out = append(out, spellResponse{
				ID:       d.ID,
				Gesture:  d.Gesture.String(),
				MinScore: d.MinScore,
				Damage:   d.Damage,
				Speed:    d.Speed,
				Effect:   d.Effect,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}
