package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStatus_ProgressAndStep(t *testing.T) {
	cases := []struct {
		s        Status
		step     int
		progress int
	}{
		{StatusProcessing, 1, 10},
		{StatusConfirmed, 2, 20},
		{StatusPacked, 3, 35},
		{StatusShipped, 4, 50},
		{StatusInTransit, 5, 70},
		{StatusOutForDelivery, 6, 90},
		{StatusDelivered, 7, 100},
		{StatusFailed, 0, 0},
		{StatusReturned, 0, 0},
	}
	for _, c := range cases {
		require.Equal(t, c.step, c.s.Step(), c.s)
		require.Equal(t, c.progress, c.s.Progress(), c.s)
		require.True(t, c.s.Valid())
	}
	require.False(t, Status("lost").Valid())
}

func TestStatus_SequenceMatchesSteps(t *testing.T) {
	for i, s := range Sequence {
		require.Equal(t, i+1, s.Step())
	}
	require.Len(t, AllStatuses, 9)
}

func TestStatus_Next(t *testing.T) {
	next, ok := StatusPacked.Next()
	require.True(t, ok)
	require.Equal(t, StatusShipped, next)

	next, ok = StatusOutForDelivery.Next()
	require.True(t, ok)
	require.Equal(t, StatusDelivered, next)

	for _, s := range []Status{StatusDelivered, StatusFailed, StatusReturned, Status("x")} {
		_, ok := s.Next()
		require.False(t, ok, s)
	}
}

func TestStatus_CanMoveTo(t *testing.T) {
	require.True(t, StatusInTransit.CanMoveTo(StatusDelivered))
	require.True(t, StatusProcessing.CanMoveTo(StatusReturned))
	require.True(t, StatusShipped.CanMoveTo(StatusFailed))

	require.False(t, StatusInTransit.CanMoveTo(StatusPacked))
	require.False(t, StatusInTransit.CanMoveTo(StatusInTransit))
	require.False(t, StatusDelivered.CanMoveTo(StatusReturned))
	require.False(t, StatusFailed.CanMoveTo(StatusProcessing))
	require.False(t, StatusPacked.CanMoveTo(Status("lost")))
}

func TestStatus_StepsRemaining(t *testing.T) {
	require.Equal(t, 6, StatusProcessing.StepsRemaining())
	require.Equal(t, 0, StatusDelivered.StepsRemaining())
	require.Equal(t, 0, StatusReturned.StepsRemaining())
}

func TestParseStatus(t *testing.T) {
	s, ok := ParseStatus("Out For Delivery")
	require.True(t, ok)
	require.Equal(t, StatusOutForDelivery, s)

	s, ok = ParseStatus("IN-TRANSIT")
	require.True(t, ok)
	require.Equal(t, StatusInTransit, s)

	_, ok = ParseStatus("teleported")
	require.False(t, ok)
}

func TestNonTerminalStatuses(t *testing.T) {
	out := NonTerminalStatuses()
	require.Len(t, out, 6)
	require.NotContains(t, out, StatusDelivered)
}

func TestZone_Matches(t *testing.T) {
	z := &Zone{
		Name:            "California",
		States:          []string{"CA"},
		Cities:          []string{" "},
		DeliveryDaysMin: 2,
		DeliveryDaysMax: 4,
		Cost:            decimal.RequireFromString("9.99"),
	}
	require.True(t, z.Matches("Los Angeles, CA, US"))
	require.False(t, z.Matches("Austin, TX, US"))
	require.False(t, z.Matches(""))
}
