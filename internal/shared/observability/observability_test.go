package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "  ", "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer.Start(context.Background(), "noop")
	span.End()
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(BuildsTotal.WithLabelValues("cached"))
	BuildsTotal.WithLabelValues("cached").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BuildsTotal.WithLabelValues("cached")))

	PatternsTotal.WithLabelValues("out-parameter").Add(3)
	assert.GreaterOrEqual(t, testutil.ToFloat64(PatternsTotal.WithLabelValues("out-parameter")), 3.0)
}
