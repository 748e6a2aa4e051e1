package commission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"babiloc/internal/domain/shared/money"
)

func TestCalculate(t *testing.T) {
	s := Calculate(money.Must(100000, "XOF"))
	assert.Equal(t, int64(15000), s.Commission.Amount)
	assert.Equal(t, int64(85000), s.OwnerNet.Amount)
	assert.Equal(t, "XOF", s.OwnerNet.Currency)
}

func TestCalculatePartsSumToGross(t *testing.T) {
	for _, gross := range []int64{0, 1, 3, 7, 10, 13, 99, 59500, 210000, 123457, 999999} {
		s := Calculate(money.Must(gross, "XOF"))
		assert.Equal(t, gross, s.Commission.Amount+s.OwnerNet.Amount, "gross=%d", gross)
		assert.GreaterOrEqual(t, s.Commission.Amount, int64(0))
	}
}

func TestCalculateAggregatesWithoutDrift(t *testing.T) {
	var commission, net int64
	for i := 0; i < 1000; i++ {
		s := Calculate(money.Must(33333, "XOF"))
		commission += s.Commission.Amount
		net += s.OwnerNet.Amount
	}
	assert.Equal(t, int64(33333*1000), commission+net)
	assert.Equal(t, int64(5000*1000), commission)
}
