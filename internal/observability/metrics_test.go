package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/ensemblectl/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(members.WithLabelValues("metrics-test", "true"))
	RecordMember("metrics-test", 1234, true)
	RecordMember("metrics-test", 0, false)
	RecordStage("metrics-test", StageBuild, 12*time.Millisecond)
	RecordCheckpointBytes("metrics-test", 2048)
	RecordRun("metrics-test", true)

	if got := testutil.ToFloat64(members.WithLabelValues("metrics-test", "true")); got != before+1 {
		t.Fatalf("unexpected member count: %v", got)
	}
	if got := testutil.ToFloat64(memberParams.WithLabelValues("metrics-test")); got != 1234 {
		t.Fatalf("unexpected member params gauge: %v", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	testlog.Start(t)
	RecordCheckpointBytes("textfile-test", 10)

	path := filepath.Join(t.TempDir(), "ensemble.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `ensemble_checkpoint_bytes_written_total{arch="textfile-test"} 10`) {
		t.Fatalf("expected checkpoint bytes series in textfile:\n%s", data)
	}
}
