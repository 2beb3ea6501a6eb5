package domain

type Algorithm string

const (
	AlgorithmAStar Algorithm = "astar"
	AlgorithmVisir Algorithm = "visir"
)

func Algorithms() []Algorithm { return []Algorithm{AlgorithmAStar, AlgorithmVisir} }

func (a Algorithm) Valid() bool { return a == AlgorithmAStar || a == AlgorithmVisir }

type Weighting string

const (
	WeightingFuel     Weighting = "fuel"
	WeightingBalanced Weighting = "balanced"
	WeightingSafety   Weighting = "safety"
)

func Weightings() []Weighting {
	return []Weighting{WeightingFuel, WeightingBalanced, WeightingSafety}
}

func (w Weighting) Valid() bool {
	return w == WeightingFuel || w == WeightingBalanced || w == WeightingSafety
}

// Final state of one route search.
type SearchOutcome string

const (
	OutcomeSucceeded SearchOutcome = "succeeded"
	OutcomeExhausted SearchOutcome = "exhausted"
	OutcomeTimedOut  SearchOutcome = "timed_out"
)

type SafetyStatus string

const (
	SafetySafe      SafetyStatus = "safe"
	SafetyMarginal  SafetyStatus = "marginal"
	SafetyDangerous SafetyStatus = "dangerous"
)

// Worst conditions met along a route, judged against the danger thresholds.
type SafetyVerdict struct {
	Status         SafetyStatus
	MaxWaveHeightM float64
	MaxWindSpeedMS float64
	// Smallest relative distance from either threshold over all legs;
	// negative when a threshold is exceeded.
	MinMargin     float64
	DangerousLegs []int
}

type OptimizationKey struct {
	Algorithm Algorithm
	Weighting Weighting
}

func (k OptimizationKey) String() string { return string(k.Algorithm) + "/" + string(k.Weighting) }

// Alternative route found by one (algorithm, weighting) search, evaluated
// like a baseline voyage and compared with it.
type OptimizationResult struct {
	VoyageResult

	Key     OptimizationKey
	Outcome SearchOutcome
	// Set when the search was cut short and the route is the best found so far.
	Partial bool
	// False when a partial route stops short of the goal. Such a route is
	// not comparable with the baseline.
	ReachesGoal   bool
	NodesExpanded int

	BaselineFuelMT     float64
	BaselineDistanceNM float64
	BaselineTimeHours  float64

	Safety SafetyVerdict
}

// Relative fuel change against the baseline; positive means savings. Zero
// for a route that does not reach the goal.
func (r *OptimizationResult) FuelSavingsPct() float64 {
	if !r.ReachesGoal || r.BaselineFuelMT <= 0 {
		return 0
	}
	return (r.BaselineFuelMT - r.TotalFuelMT) / r.BaselineFuelMT * 100
}

// Zero for a route that does not reach the goal.
func (r *OptimizationResult) TimeDeltaHours() float64 {
	if !r.ReachesGoal {
		return 0
	}
	return r.TotalTimeHours - r.BaselineTimeHours
}
