package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init() // must not panic on duplicate registration
}

func TestRecordersNeverPanic(t *testing.T) {
	// The recorders are nil-guarded so callers need not care whether
	// Init ran in this process.
	RecordRun(StatusOK)
	RecordPost(KindItem, StatusFailed)
	RecordFetchBytes(10)
}

func TestRecordPostIncrements(t *testing.T) {
	Init()

	before := testutil.ToFloat64(postsTotal.WithLabelValues(KindIntro, StatusOK))
	RecordPost(KindIntro, StatusOK)
	after := testutil.ToFloat64(postsTotal.WithLabelValues(KindIntro, StatusOK))
	if after != before+1 {
		t.Fatalf("expected counter to increase by 1, got %v -> %v", before, after)
	}
}

func TestRecordFetchBytesIncrements(t *testing.T) {
	Init()

	before := testutil.ToFloat64(fetchBytesTotal)
	RecordFetchBytes(1024)
	after := testutil.ToFloat64(fetchBytesTotal)
	if after != before+1024 {
		t.Fatalf("expected counter to increase by 1024, got %v -> %v", before, after)
	}
}
