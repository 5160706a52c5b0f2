package healthprobe

import (
	"context"
	"testing"
)

func alwaysTrue(ctx context.Context, cfg ProbeConfig) bool  { return true }
func alwaysFalse(ctx context.Context, cfg ProbeConfig) bool { return false }
func alwaysPanics(ctx context.Context, cfg ProbeConfig) bool {
	panic("connection reset by peer")
}

func TestCheck_AllHealthy(t *testing.T) {
	p := Prober{Source: alwaysTrue, Stage: alwaysTrue, Target: alwaysTrue, Drive: alwaysTrue}

	status := p.Check(context.Background())

	if !status.Source || !status.Stage || !status.Target || !status.Drive {
		t.Errorf("expected all systems healthy, got %+v", status)
	}
}

func TestCheck_MixedHealth(t *testing.T) {
	p := Prober{Source: alwaysTrue, Stage: alwaysFalse, Target: alwaysTrue, Drive: alwaysFalse}

	status := p.Check(context.Background())

	if !status.Source || status.Stage || !status.Target || status.Drive {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestCheck_PanicTreatedAsUnhealthy(t *testing.T) {
	p := Prober{Source: alwaysPanics, Stage: alwaysTrue, Target: alwaysTrue, Drive: alwaysTrue}

	status := p.Check(context.Background())

	if status.Source {
		t.Error("expected a panicking probe to report unhealthy")
	}
	if !status.Stage || !status.Target || !status.Drive {
		t.Error("expected the other probes to still run after one panics")
	}
}

func TestCheck_NilProbeTreatedAsUnhealthy(t *testing.T) {
	p := Prober{Stage: alwaysTrue, Target: alwaysTrue, Drive: alwaysTrue}

	status := p.Check(context.Background())

	if status.Source {
		t.Error("expected a nil probe to report unhealthy")
	}
}
