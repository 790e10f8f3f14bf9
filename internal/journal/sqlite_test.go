package journal

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/me/cannonbot/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testRun(t *testing.T, st *SQLiteStore, id string) *Run {
	t.Helper()
	run := &Run{
		ID:        id,
		Label:     "bench",
		Period:    20 * time.Millisecond,
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.CreateRun(context.Background(), run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}

func sampleEvents() []model.Event {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return []model.Event{
		{Tick: 1, Clock: 20 * time.Millisecond, Kind: model.EventFallback, Action: "cannon-default", Handle: 1, Resources: []model.ResourceID{"cannon"}, Time: now},
		{Tick: 1, Clock: 20 * time.Millisecond, Kind: model.EventFallback, Action: "arcade-drive", Handle: 2, Resources: []model.ResourceID{"drivetrain"}, Time: now},
		{Tick: 5, Clock: 100 * time.Millisecond, Kind: model.EventInterrupted, Action: "cannon-default", Handle: 1, Resources: []model.ResourceID{"cannon"}, Time: now},
		{Tick: 5, Clock: 100 * time.Millisecond, Kind: model.EventScheduled, Action: "fire", Handle: 3, Resources: []model.ResourceID{"cannon", "cannon-angle"}, Time: now},
		{Tick: 9, Clock: 180 * time.Millisecond, Kind: model.EventFault, Action: "revolve(1,+0.7)", Handle: 4, Detail: "motor stalled", Time: now},
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestRuns_CountsEvents(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	run := testRun(t, st, "run_a")
	if err := st.Append(ctx, run.ID, sampleEvents()); err != nil {
		t.Fatalf("append: %v", err)
	}

	runs, err := st.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	got := runs[0]
	if got.ID != "run_a" || got.Source != "run" || got.Label != "bench" {
		t.Errorf("run = %+v", got)
	}
	if got.Period != 20*time.Millisecond {
		t.Errorf("period = %v, want 20ms", got.Period)
	}
	if !got.StartedAt.Equal(run.StartedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, run.StartedAt)
	}
	if got.Events != 5 {
		t.Errorf("events = %d, want 5", got.Events)
	}
}

func TestAppend_UnknownRun(t *testing.T) {
	st := testStore(t)
	err := st.Append(context.Background(), "run_missing", sampleEvents())
	if err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestAppend_Empty(t *testing.T) {
	st := testStore(t)
	if err := st.Append(context.Background(), "run_missing", nil); err != nil {
		t.Fatalf("append nil: %v", err)
	}
}

func TestList_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testRun(t, st, "run_a")
	in := sampleEvents()
	if err := st.Append(ctx, "run_a", in); err != nil {
		t.Fatalf("append: %v", err)
	}

	recs, err := st.List(ctx, model.EventFilter{RunID: "run_a"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != len(in) {
		t.Fatalf("records = %d, want %d", len(recs), len(in))
	}
	for i, rec := range recs {
		want := in[i]
		if rec.RunID != "run_a" {
			t.Errorf("[%d] run_id = %q", i, rec.RunID)
		}
		if rec.Tick != want.Tick || rec.Clock != want.Clock || rec.Kind != want.Kind || rec.Action != want.Action || rec.Handle != want.Handle || rec.Detail != want.Detail {
			t.Errorf("[%d] = %+v, want %+v", i, rec.Event, want)
		}
		if len(rec.Resources) != len(want.Resources) {
			t.Errorf("[%d] resources = %v, want %v", i, rec.Resources, want.Resources)
		}
		if !rec.Time.Equal(want.Time) {
			t.Errorf("[%d] time = %v, want %v", i, rec.Time, want.Time)
		}
		if i > 0 && rec.Seq <= recs[i-1].Seq {
			t.Errorf("[%d] seq %d not increasing", i, rec.Seq)
		}
	}
}

func TestList_Filters(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	testRun(t, st, "run_a")
	testRun(t, st, "run_b")
	if err := st.Append(ctx, "run_a", sampleEvents()); err != nil {
		t.Fatalf("append a: %v", err)
	}
	if err := st.Append(ctx, "run_b", sampleEvents()[:2]); err != nil {
		t.Fatalf("append b: %v", err)
	}

	tests := []struct {
		name    string
		filter  model.EventFilter
		want    int
		actions string
	}{
		{"all", model.EventFilter{}, 7, ""},
		{"by run", model.EventFilter{RunID: "run_b"}, 2, "cannon-default arcade-drive"},
		{"by kind", model.EventFilter{Kind: model.EventFallback}, 4, ""},
		{"by run and kind", model.EventFilter{RunID: "run_a", Kind: model.EventFault}, 1, "revolve(1,+0.7)"},
		{"by resource", model.EventFilter{RunID: "run_a", Resource: "cannon-angle"}, 1, "fire"},
		{"resource is not a prefix match", model.EventFilter{RunID: "run_a", Resource: "cannon"}, 3, "cannon-default cannon-default fire"},
		{"limit keeps newest", model.EventFilter{RunID: "run_a", Limit: 2}, 2, "fire revolve(1,+0.7)"},
		{"no match", model.EventFilter{RunID: "run_c"}, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := st.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(recs) != tt.want {
				t.Fatalf("records = %d, want %d", len(recs), tt.want)
			}
			if tt.actions == "" {
				return
			}
			var names []string
			for _, r := range recs {
				names = append(names, r.Action)
			}
			if got := strings.Join(names, " "); got != tt.actions {
				t.Errorf("actions = %q, want %q", got, tt.actions)
			}
		})
	}
}

func TestResourceKey(t *testing.T) {
	tests := []struct {
		in   []model.ResourceID
		want string
	}{
		{nil, ""},
		{[]model.ResourceID{"cannon"}, ",cannon,"},
		{[]model.ResourceID{"cannon", "drivetrain"}, ",cannon,drivetrain,"},
	}
	for _, tt := range tests {
		if got := resourceKey(tt.in); got != tt.want {
			t.Errorf("resourceKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if !strings.HasPrefix(a, "run_") {
		t.Errorf("id = %q, want run_ prefix", a)
	}
	if a == b {
		t.Error("ids should be unique")
	}
}
