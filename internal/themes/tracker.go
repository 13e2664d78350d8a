package themes

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sealrun/sealrun/internal/market"
)

const (
	maxThemes      = 20 // top themes returned per analysis
	maxLeaders     = 5  // leaders listed per theme
	noThemeScore   = 30 // base score for symbols with no theme membership
	userFocusBonus = 15
)

// Stat is one theme's aggregate performance for a cycle.
type Stat struct {
	Name         string   `json:"name"`
	Strength     float64  `json:"strength"` // 0-1
	LimitUpCount int      `json:"limit_up_count"`
	AvgPctChange float64  `json:"avg_pct_change"`
	StockCount   int      `json:"stock_count"`
	Leaders      []string `json:"leaders"`
	IsUserFocus  bool     `json:"is_user_focus"`
}

// Tracker maps symbols to theme membership and computes per-theme strength
// from the current cycle's limit-up density and average move. Membership is
// supplied by an external collaborator; the tracker holds it read-mostly.
type Tracker struct {
	mu         sync.RWMutex
	membership map[string][]string // symbol -> theme names
	userThemes map[string]bool
	log        zerolog.Logger
}

// NewTracker builds a tracker with the given symbol->themes membership map.
func NewTracker(membership map[string][]string, log zerolog.Logger) *Tracker {
	if membership == nil {
		membership = map[string][]string{}
	}
	return &Tracker{
		membership: membership,
		userThemes: map[string]bool{},
		log:        log.With().Str("component", "themes").Logger(),
	}
}

// SetMembership replaces the symbol->themes mapping.
func (t *Tracker) SetMembership(membership map[string][]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.membership = membership
}

// SetUserThemes replaces the user's focus list.
func (t *Tracker) SetUserThemes(names []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userThemes = make(map[string]bool, len(names))
	for _, n := range names {
		t.userThemes[n] = true
	}
	t.log.Info().Strs("themes", names).Msg("user focus themes set")
}

// UserThemes returns the current focus list.
func (t *Tracker) UserThemes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.userThemes))
	for n := range t.userThemes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// SymbolThemes returns the theme names a symbol belongs to.
func (t *Tracker) SymbolThemes(symbol string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.membership[symbol]
}

// Analyze aggregates per-theme performance for one cycle: limit-up density
// weighted over average move, clamped to [0,1]. Returns at most the top 20
// themes, user-focus themes first, then by strength.
func (t *Tracker) Analyze(quotes []market.Quote, limitUpSymbols []string) []Stat {
	t.mu.RLock()
	defer t.mu.RUnlock()

	limitUp := make(map[string]bool, len(limitUpSymbols))
	for _, s := range limitUpSymbols {
		limitUp[s] = true
	}

	type agg struct {
		totalPct float64
		count    int
		leaders  []string
	}
	stats := map[string]*agg{}

	for _, q := range quotes {
		for _, theme := range t.membership[q.Symbol] {
			a := stats[theme]
			if a == nil {
				a = &agg{}
				stats[theme] = a
			}
			a.totalPct += q.PctChange
			a.count++
			if limitUp[q.Symbol] && len(a.leaders) < maxLeaders {
				a.leaders = append(a.leaders, q.Symbol)
			}
		}
	}

	result := make([]Stat, 0, len(stats))
	for name, a := range stats {
		if a.count == 0 {
			continue
		}
		avgPct := a.totalPct / float64(a.count)
		limitUpCount := 0
		for _, q := range quotes {
			if limitUp[q.Symbol] {
				for _, th := range t.membership[q.Symbol] {
					if th == name {
						limitUpCount++
						break
					}
				}
			}
		}

		// Limit-up density dominates the strength reading.
		strength := (float64(limitUpCount)*10 + avgPct) / 100
		if strength < 0 {
			strength = 0
		}
		if strength > 1 {
			strength = 1
		}

		result = append(result, Stat{
			Name:         name,
			Strength:     strength,
			LimitUpCount: limitUpCount,
			AvgPctChange: avgPct,
			StockCount:   a.count,
			Leaders:      a.leaders,
			IsUserFocus:  t.userThemes[name],
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].IsUserFocus != result[j].IsUserFocus {
			return result[i].IsUserFocus
		}
		return result[i].Strength > result[j].Strength
	})

	if len(result) > maxThemes {
		result = result[:maxThemes]
	}
	return result
}

// Score computes a symbol's theme contribution 0-100: the mean strength of
// its themes scaled to 100, plus a focus bonus when any theme is on the
// user's list. Symbols with no membership get a flat base score.
func (t *Tracker) Score(symbol string, analysis []Stat) float64 {
	t.mu.RLock()
	themes := t.membership[symbol]
	t.mu.RUnlock()

	if len(themes) == 0 {
		return noThemeScore
	}

	strength := make(map[string]float64, len(analysis))
	for _, s := range analysis {
		strength[s.Name] = s.Strength
	}

	var sum float64
	bonus := 0.0
	t.mu.RLock()
	for _, theme := range themes {
		sum += strength[theme] * 100
		if t.userThemes[theme] {
			bonus = userFocusBonus
		}
	}
	t.mu.RUnlock()

	score := sum/float64(len(themes)) + bonus
	if score > 100 {
		score = 100
	}
	return score
}
