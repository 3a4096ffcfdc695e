package tracing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srgjo27/booking_flow/internal/platform/tracing"
)

func TestSetup_NoopWithoutEndpoint(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background(), "booking-flow", "")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_WithEndpoint(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background(), "booking-flow", "http://192.0.2.1:4318")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
