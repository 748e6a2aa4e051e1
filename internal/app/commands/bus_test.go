package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoCommand struct{ text string }

func (echoCommand) Key() string { return "test.echo" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func echoHandler() Handler[echoCommand, string] {
	return HandlerFunc[echoCommand, string](func(ctx context.Context, cmd echoCommand) (string, error) {
		return cmd.text, nil
	})
}

func TestDispatchRoutesByKey(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, echoCommand{}.Key(), echoHandler())

	out, err := Dispatch[echoCommand, string](context.Background(), bus, echoCommand{text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
	assert.Equal(t, []string{"test.echo"}, bus.Keys())
}

func TestDispatchErrors(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, echoCommand{}.Key(), echoHandler())

	_, err := Dispatch[otherCommand, string](context.Background(), bus, otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[echoCommand, int](context.Background(), bus, echoCommand{text: "hi"})
	assert.ErrorIs(t, err, ErrResultType)

	_, err = Dispatch[echoCommand, string](context.Background(), nil, echoCommand{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, echoCommand{}.Key(), echoHandler())
	assert.Panics(t, func() { RegisterHandler(bus, echoCommand{}.Key(), echoHandler()) })
}
