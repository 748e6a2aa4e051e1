package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"babiloc/internal/app/commands"
	bookingapp "babiloc/internal/app/handlers/booking"
)

// Sweeper dispatches the reservation sweep on a cron schedule. Runs never overlap.
type Sweeper struct {
	Bus     commands.Bus
	Timeout time.Duration
	Logger  *slog.Logger
}

// Start schedules the sweep and starts the cron runner. Callers stop it with Stop().
func (s *Sweeper) Start(schedule string) (*cron.Cron, error) {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(s.log().Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	if _, err := c.AddFunc(schedule, func() { _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	c.Start()
	s.log().Info("reservation sweep scheduled", "schedule", schedule)
	return c, nil
}

// RunOnce advances every due reservation as of now.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	res, err := commands.Dispatch[bookingapp.AdvanceReservationsCommand, *bookingapp.SweepResult](ctx, s.Bus, bookingapp.AdvanceReservationsCommand{})
	if err != nil {
		s.log().Error("reservation sweep failed", "err", err)
		return err
	}
	if res != nil {
		s.log().Debug("reservation sweep finished", "scanned", res.Scanned, "started", res.Started, "completed", res.Completed)
	}
	return nil
}

func (s *Sweeper) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
