package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordExport(t *testing.T) {
	c := NewCollector("metrics-test-export")

	before := testutil.ToFloat64(ExportsTotal.WithLabelValues("metrics-test-export", StatusSuccess))
	c.RecordExport(nil, 2*time.Second, 1024)
	c.RecordExport(errors.New("boom"), time.Second, 0)

	assert.Equal(t, before+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("metrics-test-export", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(ExportsTotal.WithLabelValues("metrics-test-export", StatusFailure)))
	assert.Equal(t, 1024.0, testutil.ToFloat64(ExportedBytes.WithLabelValues("metrics-test-export")))
}

func TestRecordURIFailure(t *testing.T) {
	before := testutil.ToFloat64(URIBuildFailures.WithLabelValues("custom_uri"))
	RecordURIFailure("custom_uri")
	assert.Equal(t, before+1, testutil.ToFloat64(URIBuildFailures.WithLabelValues("custom_uri")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer("t")
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
