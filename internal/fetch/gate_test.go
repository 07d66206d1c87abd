package fetch

import "testing"

func TestFailureGate_FirstFailureWithPriorDataSuppressed(t *testing.T) {
	var g FailureGate
	if g.ShouldSurfaceError(true) {
		t.Error("first failure with prior data should be suppressed")
	}
	if !g.ShouldSurfaceError(true) {
		t.Error("second consecutive failure should surface")
	}
}

func TestFailureGate_NoPriorDataAlwaysSurfaces(t *testing.T) {
	var g FailureGate
	for i := 0; i < 3; i++ {
		if !g.ShouldSurfaceError(false) {
			t.Errorf("failure %d without prior data should surface", i+1)
		}
	}
}

func TestFailureGate_SuccessResetsStreak(t *testing.T) {
	var g FailureGate
	g.ShouldSurfaceError(true)
	g.ShouldSurfaceError(true)
	g.RecordSuccess()

	if g.Streak() != 0 {
		t.Errorf("Streak() = %d after success, want 0", g.Streak())
	}
	if g.ShouldSurfaceError(true) {
		t.Error("first failure after a success should be suppressed again")
	}
}

func TestFailureGate_Sequences(t *testing.T) {
	type step struct {
		success      bool
		hadPriorData bool
		want         bool
	}
	tests := []struct {
		name  string
		steps []step
	}{
		{
			name: "flake then recovery",
			steps: []step{
				{hadPriorData: true, want: false},
				{success: true},
				{hadPriorData: true, want: false},
			},
		},
		{
			name: "streak keeps surfacing",
			steps: []step{
				{hadPriorData: true, want: false},
				{hadPriorData: true, want: true},
				{hadPriorData: false, want: true},
				{hadPriorData: true, want: true},
			},
		},
		{
			name: "first failure without data then with data",
			steps: []step{
				{hadPriorData: false, want: true},
				{hadPriorData: true, want: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g FailureGate
			for i, s := range tt.steps {
				if s.success {
					g.RecordSuccess()
					continue
				}
				if got := g.ShouldSurfaceError(s.hadPriorData); got != s.want {
					t.Errorf("step %d: ShouldSurfaceError(%v) = %v, want %v", i, s.hadPriorData, got, s.want)
				}
			}
		})
	}
}

func TestFailureGate_Reset(t *testing.T) {
	var g FailureGate
	g.ShouldSurfaceError(false)
	g.ShouldSurfaceError(false)
	g.Reset()
	if g.Streak() != 0 {
		t.Errorf("Streak() = %d after Reset, want 0", g.Streak())
	}
}
