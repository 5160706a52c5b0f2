package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry("test")

	if reg.TickDuration == nil || reg.TickTotal == nil || reg.RowsReclaimed == nil ||
		reg.RowsStale == nil || reg.RowsInFlight == nil || reg.RowsAdmitted == nil ||
		reg.ProbeOutcome == nil || reg.ArbiterDecision == nil {
		t.Fatal("expected every metric to be initialized")
	}
}

func TestMustRegister_RegistersEveryMetric(t *testing.T) {
	reg := NewRegistry("test")
	registerer := prometheus.NewRegistry()

	reg.MustRegister(registerer)

	families, err := registerer.Gather()
	if err != nil {
		t.Fatalf("unexpected error gathering metrics: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one registered metric family")
	}
}

func TestMustRegister_PanicsOnDuplicateRegistration(t *testing.T) {
	reg := NewRegistry("test")
	registerer := prometheus.NewRegistry()
	reg.MustRegister(registerer)

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on duplicate registration")
		}
	}()
	reg.MustRegister(registerer)
}
