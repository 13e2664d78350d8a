package strategy

// Band maps a half-open value range [Min, Max) to a score.
type Band struct {
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
	Score float64 `yaml:"score"`
}

// Bands is an ordered breakpoint table. Lookup returns the score of the
// first band containing the value, or 0 when none matches.
type Bands []Band

// Lookup returns the banded score for v.
func (b Bands) Lookup(v float64) float64 {
	for _, band := range b {
		if v >= band.Min && v < band.Max {
			return band.Score
		}
	}
	return 0
}

// WeightedBands is a breakpoint table with its contribution weight inside a
// composite sub-score.
type WeightedBands struct {
	Weight float64 `yaml:"weight"`
	Bands  Bands   `yaml:"bands"`
}

// Score returns the weighted banded score for v.
func (w WeightedBands) Score(v float64) float64 {
	return w.Bands.Lookup(v) * w.Weight
}
