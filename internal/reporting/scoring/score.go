// Package scoring computes the weighted team-performance score.
package scoring

import (
	"math"
	"sort"
	"strings"
)

const (
	// Version identifies the weights below. Bump it when they change.
	Version = "v1"

	baseScore = 50.0

	conversionWeight  = 30.0
	wonValueWeight    = 20.0
	taskWeight        = 15.0
	appointmentWeight = 10.0
	activityWeight    = 5.0
)

// Stats are one member's counters for the reporting window.
type Stats struct {
	LeadsAssigned         int
	LeadsWon              int
	LeadsLost             int
	WonValue              float64
	TasksCompleted        int
	TasksOverdue          int
	AppointmentsCompleted int
	AppointmentsNoShow    int
}

// TeamMax holds the team-wide maxima used for relative factors.
type TeamMax struct {
	WonValue      float64
	LeadsAssigned int
}

// MaxOf scans every member's stats.
func MaxOf(all []Stats) TeamMax {
	var m TeamMax
	for _, s := range all {
		if s.WonValue > m.WonValue {
			m.WonValue = s.WonValue
		}
		if s.LeadsAssigned > m.LeadsAssigned {
			m.LeadsAssigned = s.LeadsAssigned
		}
	}
	return m
}

// Compute returns the 0-100 score and the contribution of each factor.
// A factor whose denominator is zero contributes nothing.
func Compute(s Stats, team TeamMax) (int, map[string]float64) {
	factors := make(map[string]float64)
	score := baseScore

	if rate, ok := ratio(s.LeadsWon, s.LeadsWon+s.LeadsLost); ok {
		score += addFactor(factors, "conversion", centered(conversionWeight, rate))
	}
	if team.WonValue > 0 {
		score += addFactor(factors, "wonValue", wonValueWeight*(s.WonValue/team.WonValue)-wonValueWeight/2)
	}
	if rate, ok := ratio(s.TasksCompleted, s.TasksCompleted+s.TasksOverdue); ok {
		score += addFactor(factors, "taskCompletion", centered(taskWeight, rate))
	}
	if rate, ok := ratio(s.AppointmentsCompleted, s.AppointmentsCompleted+s.AppointmentsNoShow); ok {
		score += addFactor(factors, "appointmentShow", centered(appointmentWeight, rate))
	}
	if rate, ok := ratio(s.LeadsAssigned, team.LeadsAssigned); ok {
		score += addFactor(factors, "activity", centered(activityWeight, rate))
	}

	return clampScore(score), factors
}

// centered maps a 0..1 rate onto -weight..+weight with 0.5 as neutral.
func centered(weight, rate float64) float64 {
	return weight * (rate - 0.5) * 2
}

func ratio(num, den int) (float64, bool) {
	if den <= 0 {
		return 0, false
	}
	return float64(num) / float64(den), true
}

func addFactor(factors map[string]float64, key string, value float64) float64 {
	if math.Abs(value) < 0.01 {
		return 0
	}
	factors[key] = math.Round(value*10) / 10
	return value
}

func clampScore(value float64) int {
	rounded := int(math.Round(value))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// Ranked is anything that carries a score and a display name.
type Ranked interface {
	RankScore() int
	RankName() string
}

// Rank orders by score descending, then by name.
func Rank[T Ranked](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].RankScore() != items[j].RankScore() {
			return items[i].RankScore() > items[j].RankScore()
		}
		return strings.ToLower(items[i].RankName()) < strings.ToLower(items[j].RankName())
	})
}
