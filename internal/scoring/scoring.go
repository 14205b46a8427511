// Package scoring computes the point value of a finished match.
//
// Score is deterministic and free of I/O: the same Input and Rules always
// produce the same value. Rules are built once at start-up and passed by
// value, so no caller can change the table another caller is using.
package scoring

// Input carries the match attributes that influence the score
type Input struct {
	Completed          bool
	Timed              bool
	Multiplayer        bool
	GridSize           int
	AccuracyPercentage float64
	HintsUsed          int
	CompletionTime     *int
	Position           *int
}

// Tier awards Bonus when the measured value is at least Threshold
type Tier struct {
	Threshold float64
	Bonus     int
}

// HintPenalty subtracts Penalty when at least MinHints hints were used
type HintPenalty struct {
	MinHints int
	Penalty  int
}

// TimeTier awards Bonus when completion time is at most GridSize*SecondsPerCell
type TimeTier struct {
	SecondsPerCell int
	Bonus          int
}

// Rules is the complete rule table. Tier slices are ordered from the most
// to the least generous entry; the first match wins.
type Rules struct {
	Base            int
	AccuracyTiers   []Tier
	HintPenalties   []HintPenalty
	TimeTiers       []TimeTier
	PositionBonuses map[int]int
	MinPoints       int
	// MaxPoints caps the final value when positive; zero means uncapped.
	MaxPoints int
}

// DefaultRules returns the production rule table
func DefaultRules() Rules {
	return Rules{
		Base: 100,
		AccuracyTiers: []Tier{
			{Threshold: 95, Bonus: 40},
			{Threshold: 85, Bonus: 35},
			{Threshold: 75, Bonus: 30},
			{Threshold: 65, Bonus: 25},
			{Threshold: 50, Bonus: 20},
			{Threshold: 25, Bonus: 10},
		},
		HintPenalties: []HintPenalty{
			{MinHints: 5, Penalty: 20},
			{MinHints: 3, Penalty: 15},
			{MinHints: 2, Penalty: 10},
			{MinHints: 1, Penalty: 5},
		},
		TimeTiers: []TimeTier{
			{SecondsPerCell: 30, Bonus: 30}, // gold
			{SecondsPerCell: 45, Bonus: 15}, // silver
			{SecondsPerCell: 60, Bonus: 5},  // bronze
		},
		PositionBonuses: map[int]int{1: 30, 2: 20, 3: 10},
		MinPoints:       10,
	}
}

// WithBounds returns a copy of the rules with a different floor and ceiling
func (r Rules) WithBounds(minPoints, maxPoints int) Rules {
	out := r.clone()
	out.MinPoints = minPoints
	out.MaxPoints = maxPoints
	return out
}

// MaxAchievable is the highest value the table can produce before the ceiling
func (r Rules) MaxAchievable() int {
	total := r.Base
	if len(r.AccuracyTiers) > 0 {
		total += r.AccuracyTiers[0].Bonus
	}
	if len(r.TimeTiers) > 0 {
		total += r.TimeTiers[0].Bonus
	}
	best := 0
	for _, bonus := range r.PositionBonuses {
		if bonus > best {
			best = bonus
		}
	}
	return total + best
}

// Score returns the points earned for a match. Anything not completed scores zero.
func (r Rules) Score(in Input) int {
	if !in.Completed {
		return 0
	}

	points := r.Base
	points += r.accuracyBonus(in.AccuracyPercentage)
	points -= r.hintPenalty(in.HintsUsed)

	if in.Timed && in.CompletionTime != nil {
		points += r.timeBonus(in.GridSize, *in.CompletionTime)
	}
	if in.Multiplayer && in.Position != nil {
		points += r.PositionBonuses[*in.Position]
	}

	if points < r.MinPoints {
		points = r.MinPoints
	}
	if r.MaxPoints > 0 && points > r.MaxPoints {
		points = r.MaxPoints
	}
	return points
}

func (r Rules) accuracyBonus(accuracy float64) int {
	for _, tier := range r.AccuracyTiers {
		if accuracy >= tier.Threshold {
			return tier.Bonus
		}
	}
	return 0
}

func (r Rules) hintPenalty(hints int) int {
	for _, p := range r.HintPenalties {
		if hints >= p.MinHints {
			return p.Penalty
		}
	}
	return 0
}

func (r Rules) timeBonus(gridSize, seconds int) int {
	for _, tier := range r.TimeTiers {
		if seconds <= gridSize*tier.SecondsPerCell {
			return tier.Bonus
		}
	}
	return 0
}

func (r Rules) clone() Rules {
	out := r
	out.AccuracyTiers = append([]Tier(nil), r.AccuracyTiers...)
	out.HintPenalties = append([]HintPenalty(nil), r.HintPenalties...)
	out.TimeTiers = append([]TimeTier(nil), r.TimeTiers...)
	out.PositionBonuses = make(map[int]int, len(r.PositionBonuses))
	for k, v := range r.PositionBonuses {
		out.PositionBonuses[k] = v
	}
	return out
}
