package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/app/commands"
	bookingapp "babiloc/internal/app/handlers/booking"
)

type stubBus struct {
	cmds []commands.Command
	err  error
}

func (b *stubBus) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	b.cmds = append(b.cmds, cmd)
	if b.err != nil {
		return nil, b.err
	}
	return &bookingapp.SweepResult{Scanned: 2, Started: 1}, nil
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRunOnceDispatchesSweep(t *testing.T) {
	bus := &stubBus{}
	s := &Sweeper{Bus: bus, Logger: quiet()}

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, bus.cmds, 1)
	cmd, ok := bus.cmds[0].(bookingapp.AdvanceReservationsCommand)
	require.True(t, ok)
	assert.True(t, cmd.At.IsZero())
}

func TestRunOnceReportsFailure(t *testing.T) {
	boom := errors.New("store offline")
	s := &Sweeper{Bus: &stubBus{err: boom}, Logger: quiet()}
	assert.ErrorIs(t, s.RunOnce(context.Background()), boom)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := &Sweeper{Bus: &stubBus{}, Logger: quiet()}
	_, err := s.Start("every now and then")
	assert.Error(t, err)

	c, err := s.Start("@every 1h")
	require.NoError(t, err)
	<-c.Stop().Done()
}
