package scoring

import "testing"

func TestComputeNeutralWithoutData(t *testing.T) {
	score, factors := Compute(Stats{}, TeamMax{})
	if score != 50 {
		t.Fatalf("expected base score 50, got %d", score)
	}
	if len(factors) != 0 {
		t.Fatalf("expected no factors, got %v", factors)
	}
}

func TestComputeWeights(t *testing.T) {
	cases := []struct {
		name  string
		stats Stats
		max   TeamMax
		want  int
	}{
		{
			name:  "perfect conversion only",
			stats: Stats{LeadsWon: 4},
			want:  80,
		},
		{
			name:  "all lost",
			stats: Stats{LeadsLost: 3},
			want:  20,
		},
		{
			name:  "top earner with full tasks and shows",
			stats: Stats{LeadsWon: 1, LeadsLost: 1, WonValue: 1000, TasksCompleted: 2, AppointmentsCompleted: 1},
			max:   TeamMax{WonValue: 1000},
			want:  85,
		},
		{
			name:  "zero value with team earnings",
			stats: Stats{},
			max:   TeamMax{WonValue: 500},
			want:  40,
		},
		{
			name:  "everything maxed clamps to 100",
			stats: Stats{LeadsWon: 5, LeadsAssigned: 10, WonValue: 9, TasksCompleted: 3, AppointmentsCompleted: 2},
			max:   TeamMax{WonValue: 9, LeadsAssigned: 10},
			want:  100,
		},
		{
			name:  "half activity is neutral",
			stats: Stats{LeadsAssigned: 5},
			max:   TeamMax{LeadsAssigned: 10},
			want:  50,
		},
	}

	for _, tc := range cases {
		got, _ := Compute(tc.stats, tc.max)
		if got != tc.want {
			t.Errorf("%s: got %d want %d", tc.name, got, tc.want)
		}
	}
}

func TestComputeReportsFactors(t *testing.T) {
	_, factors := Compute(Stats{TasksCompleted: 1, TasksOverdue: 3}, TeamMax{})
	if factors["taskCompletion"] != -7.5 {
		t.Fatalf("expected taskCompletion -7.5, got %v", factors)
	}
}

type row struct {
	name  string
	score int
}

func (r row) RankScore() int   { return r.score }
func (r row) RankName() string { return r.name }

func TestRankByScoreThenName(t *testing.T) {
	rows := []row{{"carol", 60}, {"Bob", 80}, {"alice", 60}}
	Rank(rows)

	want := []string{"Bob", "alice", "carol"}
	for i, name := range want {
		if rows[i].name != name {
			t.Fatalf("position %d: got %s want %s", i, rows[i].name, name)
		}
	}
}

func TestMaxOf(t *testing.T) {
	m := MaxOf([]Stats{{WonValue: 10, LeadsAssigned: 2}, {WonValue: 4, LeadsAssigned: 9}})
	if m.WonValue != 10 || m.LeadsAssigned != 9 {
		t.Fatalf("unexpected max %+v", m)
	}
}
