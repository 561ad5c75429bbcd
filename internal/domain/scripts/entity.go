package scripts

import (
	"time"

	"github.com/bryanwahyu/reelscript/internal/domain/analysis"
)

// ScriptID identifier type
type ScriptID string

// SavedScript is an analysis result a user chose to keep.
type SavedScript struct {
	ID      ScriptID        `json:"id"`
	UserID  string          `json:"userId"`
	SavedAt time.Time       `json:"savedAt"`
	Result  analysis.Result `json:"result"`
}

// Quota reports how many more scripts a user may save.
type Quota struct {
	Count     int `json:"count"`
	Max       int `json:"max"`
	Remaining int `json:"remaining"`
}
