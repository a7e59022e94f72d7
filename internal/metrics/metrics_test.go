package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/woozymasta/masterstat/pkg/masterstat"
	"github.com/woozymasta/masterstat/pkg/udp"
)

func TestClassify(t *testing.T) {
	cerr := &udp.ConnectivityError{Phase: udp.PhaseReceive, Address: "x:1", Err: errors.New("timeout")}

	assert.Equal(t, ResultOK, Classify(nil))
	assert.Equal(t, ResultConnectivity, Classify(cerr))
	assert.Equal(t, ResultConnectivity, Classify(fmt.Errorf("wrapped: %w", cerr)))
	assert.Equal(t, ResultInvalid, Classify(masterstat.ErrInvalidResponse))
	assert.Equal(t, ResultError, Classify(errors.New("other")))
}

func TestObserveMaster(t *testing.T) {
	const master = "metrics-test.example:27000"
	Register([]string{master})

	assert.Zero(t, testutil.ToFloat64(masterQueries.WithLabelValues(master, ResultOK)))

	ObserveMaster(masterstat.MasterResult{Master: master, Servers: 12, Duration: 20 * time.Millisecond})
	ObserveMaster(masterstat.MasterResult{Master: master, Err: masterstat.ErrInvalidResponse, Duration: time.Millisecond})

	assert.Equal(t, 1.0, testutil.ToFloat64(masterQueries.WithLabelValues(master, ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(masterQueries.WithLabelValues(master, ResultInvalid)))
	assert.Equal(t, 12.0, testutil.ToFloat64(masterServers.WithLabelValues(master)), "failed query keeps last count")

	SetServersKnown(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(serversKnown))
}
