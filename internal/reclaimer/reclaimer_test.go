package reclaimer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/datadrive/reclaimerd/internal/alertdispatch"
	"github.com/datadrive/reclaimerd/internal/drivemodel"
	"github.com/datadrive/reclaimerd/internal/drivestore"
	"github.com/datadrive/reclaimerd/internal/staleness"
)

type fakeStore struct {
	inFlight    []drivemodel.Row
	fetchErr    error
	replaceErrs map[string]error
	replaced    []string
}

func (f *fakeStore) FetchInProcess(ctx context.Context, q drivestore.Quadruple) ([]drivemodel.Row, error) {
	return f.inFlight, f.fetchErr
}

func (f *fakeStore) ReplaceRow(ctx context.Context, original, updated drivemodel.Row) error {
	if err, ok := f.replaceErrs[original.PipelineID]; ok {
		return err
	}
	f.replaced = append(f.replaced, original.PipelineID)
	return nil
}

type fakeDispatcher struct {
	sent int
	err  error
}

func (f *fakeDispatcher) Send(ctx context.Context, alert alertdispatch.Alert) error {
	f.sent++
	return f.err
}

func staleRow(id string, start time.Time) drivemodel.Row {
	return drivemodel.Row{
		PipelineID:          id,
		PipelineStatus:      drivemodel.StatusInProcess,
		PipelineStartTime:   &start,
		PipelineExpDuration: "1h",
	}
}

func TestRun_EmptyInFlight(t *testing.T) {
	store := &fakeStore{}
	result, err := Run(context.Background(), store, nil, Config{Staleness: staleness.Config{StaleThresholdFactor: 1}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != (Result{}) {
		t.Errorf("expected zero result, got %+v", result)
	}
}

func TestRun_NoStaleRows(t *testing.T) {
	fresh := staleRow("fresh", time.Now())
	store := &fakeStore{inFlight: []drivemodel.Row{fresh}}

	result, err := Run(context.Background(), store, nil, Config{Staleness: staleness.Config{StaleThresholdFactor: 3}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.Stale != 0 || result.Converted != 0 {
		t.Errorf("got %+v, want Total=1 Stale=0 Converted=0", result)
	}
}

func TestRun_ReclaimsStaleRows(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	row := staleRow("p1", old)
	store := &fakeStore{inFlight: []drivemodel.Row{row}}
	dispatcher := &fakeDispatcher{}

	result, err := Run(context.Background(), store, dispatcher, Config{Staleness: staleness.Config{StaleThresholdFactor: 1}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 1 || result.Stale != 1 || result.Converted != 1 {
		t.Errorf("got %+v, want Total=1 Stale=1 Converted=1", result)
	}
	if dispatcher.sent != 1 {
		t.Errorf("expected 1 alert dispatched, got %d", dispatcher.sent)
	}
	if len(store.replaced) != 1 || store.replaced[0] != "p1" {
		t.Errorf("expected p1 to be replaced, got %v", store.replaced)
	}
}

func TestRun_PerRowFailureDoesNotBlockOthers(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	rowA := staleRow("a", old)
	rowB := staleRow("b", old)
	store := &fakeStore{
		inFlight:    []drivemodel.Row{rowA, rowB},
		replaceErrs: map[string]error{"a": errors.New("boom")},
	}

	result, err := Run(context.Background(), store, nil, Config{Staleness: staleness.Config{StaleThresholdFactor: 1}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Stale != 2 || result.Converted != 1 {
		t.Errorf("got %+v, want Stale=2 Converted=1", result)
	}
	if len(store.replaced) != 1 || store.replaced[0] != "b" {
		t.Errorf("expected only b to be replaced, got %v", store.replaced)
	}
}

func TestRun_DryRunSkipsReplaceRow(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	row := staleRow("p1", old)
	store := &fakeStore{inFlight: []drivemodel.Row{row}}

	result, err := Run(context.Background(), store, nil, Config{
		Staleness: staleness.Config{StaleThresholdFactor: 1},
		DryRun:    true,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Converted != 1 {
		t.Errorf("expected dry run to still count as converted, got %+v", result)
	}
	if len(store.replaced) != 0 {
		t.Errorf("expected ReplaceRow not to be called in dry run, got %v", store.replaced)
	}
}

func TestRun_AlertDispatchFailureDoesNotBlockReclaim(t *testing.T) {
	old := time.Now().Add(-2 * time.Hour)
	row := staleRow("p1", old)
	store := &fakeStore{inFlight: []drivemodel.Row{row}}
	dispatcher := &fakeDispatcher{err: errors.New("smtp down")}

	result, err := Run(context.Background(), store, dispatcher, Config{Staleness: staleness.Config{StaleThresholdFactor: 1}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Converted != 1 {
		t.Errorf("expected reclaim to proceed despite alert failure, got %+v", result)
	}
}
