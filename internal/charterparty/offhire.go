package charterparty

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"voyage-routing-service/internal/domain"
)

// One line of the engine log.
type LogEntry struct {
	Timestamp time.Time
	RPM       float64
	SpeedSTW  float64
	Event     string
	Place     string
}

type OffHireReason string

const (
	ReasonGap           OffHireReason = "timestamp_gap"
	ReasonAnchor        OffHireReason = "at_anchor"
	ReasonPort          OffHireReason = "in_port"
	ReasonEngineStopped OffHireReason = "engine_stopped"
	ReasonDrifting      OffHireReason = "drifting"
)

// OffHireRules are the thresholds that put an interval off hire.
type OffHireRules struct {
	// Engine considered stopped below this.
	MinRPM float64
	// Vessel considered drifting below this speed through water, in knots.
	MinSpeedKts float64
	// Longest interval between log entries still accounted for.
	MaxGap time.Duration
}

func DefaultOffHireRules() OffHireRules {
	return OffHireRules{MinRPM: 10, MinSpeedKts: 1, MaxGap: 6 * time.Hour}
}

func (r OffHireRules) Validate() error {
	if r.MinRPM < 0 || r.MinSpeedKts < 0 {
		return &domain.ValidationError{Field: "rules", Message: "thresholds must not be negative"}
	}
	if r.MaxGap <= 0 {
		return &domain.ValidationError{Field: "gap_hours", Message: fmt.Sprintf("gap must be positive, got %s", r.MaxGap)}
	}
	return nil
}

type OffHireEvent struct {
	Start       time.Time
	End         time.Time
	Reason      OffHireReason
	AvgSpeedKts float64
}

func (e OffHireEvent) Hours() float64 { return e.End.Sub(e.Start).Hours() }

type OffHireResult struct {
	TotalHours   float64
	OnHireHours  float64
	OffHireHours float64
	OffHirePct   float64
	Events       []OffHireEvent
}

// Events of the same reason closer than this are reported as one.
const mergeWithin = time.Hour

// DetectOffHire walks the log in time order and classifies each interval by
// the entry that opens it. The first matching rule wins: a gap in the log,
// then anchor or port in the event or place text, then a stopped engine,
// then drifting.
func DetectOffHire(entries []LogEntry, rules OffHireRules) (*OffHireResult, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	res := &OffHireResult{}
	if len(entries) < 2 {
		return res, nil
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b LogEntry) int { return a.Timestamp.Compare(b.Timestamp) })

	var events []OffHireEvent
	for i := 0; i < len(sorted)-1; i++ {
		cur, next := sorted[i], sorted[i+1]
		if !next.Timestamp.After(cur.Timestamp) {
			continue
		}
		reason, ok := rules.classify(cur, next.Timestamp.Sub(cur.Timestamp))
		if !ok {
			continue
		}
		events = append(events, OffHireEvent{
			Start:       cur.Timestamp,
			End:         next.Timestamp,
			Reason:      reason,
			AvgSpeedKts: max(cur.SpeedSTW, 0),
		})
	}
	res.Events = mergeEvents(events)

	res.TotalHours = sorted[len(sorted)-1].Timestamp.Sub(sorted[0].Timestamp).Hours()
	for _, e := range res.Events {
		res.OffHireHours += e.Hours()
	}
	res.OnHireHours = max(res.TotalHours-res.OffHireHours, 0)
	if res.TotalHours > 0 {
		res.OffHirePct = res.OffHireHours / res.TotalHours * 100
	}
	return res, nil
}

func (r OffHireRules) classify(e LogEntry, interval time.Duration) (OffHireReason, bool) {
	event, place := strings.ToLower(e.Event), strings.ToLower(e.Place)
	switch {
	case interval > r.MaxGap:
		return ReasonGap, true
	case strings.Contains(event, "anchor") || strings.Contains(place, "anchor"):
		return ReasonAnchor, true
	case strings.Contains(event, "port") || strings.Contains(place, "port"):
		return ReasonPort, true
	case e.RPM < r.MinRPM:
		return ReasonEngineStopped, true
	case e.SpeedSTW < r.MinSpeedKts:
		return ReasonDrifting, true
	}
	return "", false
}

// mergeEvents joins consecutive events of the same reason separated by no
// more than mergeWithin. The merged event keeps the first event's speed.
func mergeEvents(events []OffHireEvent) []OffHireEvent {
	if len(events) == 0 {
		return nil
	}
	out := []OffHireEvent{events[0]}
	for _, e := range events[1:] {
		last := &out[len(out)-1]
		if e.Reason == last.Reason && e.Start.Sub(last.End) <= mergeWithin {
			last.End = e.End
			continue
		}
		out = append(out, e)
	}
	return out
}
