package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sealrun/sealrun/internal/market"
	"github.com/sealrun/sealrun/internal/regime"
	"github.com/sealrun/sealrun/internal/strategy"
)

// AlertCard is one push-ready notification for an actionable candidate.
type AlertCard struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"ts"`
	Symbol    string         `json:"symbol"`
	Name      string         `json:"name,omitempty"`
	Action    market.Action  `json:"action"`
	Score     float64        `json:"score"`
	Headline  string         `json:"headline"`
	Market    string         `json:"market_summary"`
	Plan      *strategy.Plan `json:"plan,omitempty"`
}

// buildAlerts emits a card for every ALLOW and for WATCH candidates scoring
// at or above the alert floor.
func (p *Planner) buildAlerts(candidates []Candidate, update regime.UpdateResult, now time.Time) []AlertCard {
	var out []AlertCard
	for _, c := range candidates {
		if c.Action != market.ActionAllow &&
			!(c.Action == market.ActionWatch && c.Score.Total >= p.cfg.AlertWatchMin) {
			continue
		}

		out = append(out, AlertCard{
			ID:        uuid.NewString(),
			Timestamp: now,
			Symbol:    c.Symbol,
			Name:      c.Name,
			Action:    c.Action,
			Score:     c.Score.Total,
			Headline:  headline(c),
			Market:    update.Summary,
			Plan:      c.Plan,
		})
	}
	return out
}

// headline renders the one-line human summary for a card.
func headline(c Candidate) string {
	label := c.Symbol
	if c.Name != "" {
		label = fmt.Sprintf("%s %s", c.Name, c.Symbol)
	}
	ev := c.Features.Events
	switch {
	case c.Action == market.ActionAllow && ev.Resealed:
		return fmt.Sprintf("%s resealed in %ds, score %.0f", label, ev.ResealSpeedSec, c.Score.Total)
	case c.Action == market.ActionAllow:
		return fmt.Sprintf("%s sealed and holding, score %.0f", label, c.Score.Total)
	default:
		return fmt.Sprintf("%s worth watching, score %.0f", label, c.Score.Total)
	}
}
