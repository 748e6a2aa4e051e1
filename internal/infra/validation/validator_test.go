package validation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/domain/shared/failure"
)

type sample struct {
	PropertyID string    `validate:"required"`
	Kind       string    `validate:"required,oneof=percent fixed"`
	Rating     int       `validate:"gte=1,lte=5"`
	DateStart  time.Time `validate:"required"`
}

func TestValidateReportsFirstField(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), sample{Kind: "percent", Rating: 3, DateStart: time.Now()})
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrValidation)
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.CodeInvalidInput, fe.Code)
	assert.Contains(t, fe.Detail, "property_id")
}

func TestValidateAcceptsValidMessage(t *testing.T) {
	v := New()
	msg := sample{PropertyID: "p1", Kind: "fixed", Rating: 5, DateStart: time.Now()}
	assert.NoError(t, v.Validate(context.Background(), msg))
	assert.NoError(t, v.Validate(context.Background(), &msg))
}

func TestValidateIgnoresNonStructs(t *testing.T) {
	assert.NoError(t, New().Validate(context.Background(), "text"))
	assert.NoError(t, New().Validate(context.Background(), nil))
}

func TestToSnake(t *testing.T) {
	assert.Equal(t, "property_id", toSnake("PropertyID"))
	assert.Equal(t, "date_start", toSnake("DateStart"))
}
