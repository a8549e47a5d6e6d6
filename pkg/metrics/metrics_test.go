package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_Counters(t *testing.T) {
	r := New()

	r.AddBytes(1024)
	r.AddBytes(0)
	r.AddLines(10, 2)
	r.AddLines(5, 0)
	r.AddFileErrors(1)
	r.GroupDone(ResultMerged, 20*time.Millisecond)
	r.GroupDone(ResultCopied, time.Millisecond)
	r.GroupDone(ResultMerged, 5*time.Millisecond)

	if got := testutil.ToFloat64(r.bytesRead); got != 1024 {
		t.Errorf("bytes_read_total = %v, want 1024", got)
	}
	if got := testutil.ToFloat64(r.linesMerged); got != 15 {
		t.Errorf("lines_merged_total = %v, want 15", got)
	}
	if got := testutil.ToFloat64(r.linesMalformed); got != 2 {
		t.Errorf("lines_malformed_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.fileErrors); got != 1 {
		t.Errorf("file_errors_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.groups.WithLabelValues(ResultMerged)); got != 2 {
		t.Errorf("groups_total{result=merged} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.groups.WithLabelValues(ResultCopied)); got != 1 {
		t.Errorf("groups_total{result=copied} = %v, want 1", got)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.AddBytes(1)
	r.AddLines(1, 1)
	r.AddFileErrors(1)
	r.GroupDone(ResultFailed, time.Second)
	r.RunDone(time.Now(), time.Second)
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Errorf("WriteTextfile() on nil = %v", err)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.AddBytes(2048)
	r.RunDone(time.Unix(1700000000, 0), 1500*time.Millisecond)

	path := filepath.Join(t.TempDir(), "logmerge.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		"logmerge_bytes_read_total 2048",
		"logmerge_last_run_duration_seconds 1.5",
		"logmerge_last_run_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestRecorder_WriteTextfileBadPath(t *testing.T) {
	r := New()
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("WriteTextfile() expected error for missing directory")
	}
}
