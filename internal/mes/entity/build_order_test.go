package entity

import "testing"

// TestBuildTransitions 穷举全部状态对，核对流转表
func TestBuildTransitions(t *testing.T) {
	allowed := map[BuildStatus]map[BuildStatus]bool{
		BuildStatusPlanned:    {BuildStatusReserved: true, BuildStatusCancelled: true},
		BuildStatusReserved:   {BuildStatusInProgress: true, BuildStatusCancelled: true},
		BuildStatusInProgress: {BuildStatusQC: true, BuildStatusCancelled: true},
		BuildStatusQC:         {BuildStatusComplete: true, BuildStatusCancelled: true},
		BuildStatusComplete:   {},
		BuildStatusCancelled:  {},
	}

	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := allowed[from][to]
			got := from.CanTransition(to)
			if got != want {
				t.Errorf("CanTransition(%s → %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestBuildStatusTerminal(t *testing.T) {
	terminals := map[BuildStatus]bool{
		BuildStatusPlanned:    false,
		BuildStatusReserved:   false,
		BuildStatusInProgress: false,
		BuildStatusQC:         false,
		BuildStatusComplete:   true,
		BuildStatusCancelled:  true,
	}
	for s, want := range terminals {
		if s.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), want)
		}
	}
}

func TestBuildStatusSelfTransitionRejected(t *testing.T) {
	for _, s := range AllStatuses() {
		if s.CanTransition(s) {
			t.Errorf("%s 不应允许流转到自身", s)
		}
	}
}

func TestBuildStatusValid(t *testing.T) {
	for _, s := range AllStatuses() {
		if !s.Valid() {
			t.Errorf("%s 应为合法状态", s)
		}
	}
	if BuildStatus("shipped").Valid() {
		t.Error("未知状态不应合法")
	}
}

func TestTotalBuilt(t *testing.T) {
	b := &BuildOrder{QCPassed: 4, QCFailed: 1}
	if b.TotalBuilt() != 5 {
		t.Errorf("TotalBuilt() = %d, want 5", b.TotalBuilt())
	}
}
