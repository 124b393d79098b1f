package calversion

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Clock supplies the calendar a version is derived against.
type Clock interface {
	Calendar(ctx context.Context) (Calendar, error)
}

// CalendarAt returns the calendar for t: its month and two-digit year minus EpochOffset.
func CalendarAt(t time.Time) Calendar {
	return Calendar{Month: int(t.Month()), Year: t.Year()%100 - EpochOffset}
}

// SystemClock reads the calendar from the Go runtime clock.
type SystemClock struct {
	Now func() time.Time
}

func (c SystemClock) Calendar(_ context.Context) (Calendar, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return CalendarAt(now()), nil
}

// DateClock reads the calendar by running date(1), the way shell-based
// release scripts do.
type DateClock struct {
	Exec Executor
}

func (c DateClock) Calendar(ctx context.Context) (Calendar, error) {
	month, err := c.field(ctx, "+%-m")
	if err != nil {
		return Calendar{}, errors.Wrap(err, "month")
	}
	year, err := c.field(ctx, "+%y")
	if err != nil {
		return Calendar{}, errors.Wrap(err, "year")
	}
	return Calendar{Month: month, Year: year - EpochOffset}, nil
}

func (c DateClock) field(ctx context.Context, format string) (int, error) {
	res, err := c.Exec.Run(ctx, "date", []string{format}, RunOpts{})
	if err != nil {
		return 0, err
	}
	out := strings.TrimSpace(res.Stdout)
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, errors.Errorf("date %s returned %q", format, out)
	}
	return n, nil
}
