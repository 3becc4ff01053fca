// internal/scheduler/scheduler_test.go
package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/mindloom/internal/store"
	"github.com/user/mindloom/internal/types"
)

func TestSchedulerSnapshotsStore(t *testing.T) {
	dir := t.TempDir()
	st := store.New(dir, types.DefaultThresholds())
	st.CreateSession(types.AnalysisMusic)

	// Remove the save-on-mutation snapshot so the next write must come
	// from the scheduled job.
	path := filepath.Join(dir, "sessions.json")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	sched := New(st, nil, "* * * * * *", 0)
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatal("snapshot job did not fire within 2.5s")
		case <-ticker.C:
			if _, err := os.Stat(path); err == nil {
				return
			}
		}
	}
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	st := store.New(t.TempDir(), types.DefaultThresholds())
	sched := New(st, nil, "not a schedule", 0)
	if err := sched.Start(); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
