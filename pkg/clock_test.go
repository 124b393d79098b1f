package calversion_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calversion "github.com/bcomnes/calversion/pkg"
	"github.com/bcomnes/calversion/pkg/mock"
)

func TestCalendarAt(t *testing.T) {
	tests := []struct {
		at       time.Time
		expected calversion.Calendar
	}{
		{time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), calversion.Calendar{Month: 3, Year: 7}},
		{time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC), calversion.Calendar{Month: 1, Year: 0}},
		{time.Date(2026, time.December, 31, 23, 59, 0, 0, time.UTC), calversion.Calendar{Month: 12, Year: 8}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, calversion.CalendarAt(tc.at), tc.at.String())
	}
}

func TestSystemClock(t *testing.T) {
	clock := calversion.SystemClock{Now: func() time.Time {
		return time.Date(2025, time.April, 2, 10, 0, 0, 0, time.UTC)
	}}
	cal, err := clock.Calendar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calversion.Calendar{Month: 4, Year: 7}, cal)

	cal, err = calversion.SystemClock{}.Calendar(context.Background())
	require.NoError(t, err)
	assert.NoError(t, cal.Validate())
}

func TestDateClock(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mock.NewMockExecutor(ctrl)
	gomock.InOrder(
		exec.EXPECT().Run(gomock.Any(), "date", []string{"+%-m"}, gomock.Any()).
			Return(calversion.Result{Stdout: "3\n"}, nil),
		exec.EXPECT().Run(gomock.Any(), "date", []string{"+%y"}, gomock.Any()).
			Return(calversion.Result{Stdout: "25\n"}, nil),
	)

	cal, err := calversion.DateClock{Exec: exec}.Calendar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calversion.Calendar{Month: 3, Year: 7}, cal)
}

func TestDateClockBadOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	exec := mock.NewMockExecutor(ctrl)
	exec.EXPECT().Run(gomock.Any(), "date", []string{"+%-m"}, gomock.Any()).
		Return(calversion.Result{Stdout: "March\n"}, nil)

	_, err := calversion.DateClock{Exec: exec}.Calendar(context.Background())
	assert.Error(t, err)
}
