package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_IndependentRegistries(t *testing.T) {
	a := New()
	b := New()

	a.ChecklistsCreated.Inc()
	a.PDFExports.WithLabelValues("current").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ChecklistsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ChecklistsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.PDFExports.WithLabelValues("current")))

	mfs, err := a.Gatherer().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
