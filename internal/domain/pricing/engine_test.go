package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/daterange"
	"babiloc/internal/domain/shared/failure"
	"babiloc/internal/domain/shared/money"
)

type tariffKey struct {
	property property.ID
	kind     Kind
}

type fakeTariffs struct {
	mu     sync.Mutex
	items  map[tariffKey]Tariff
	writes []Kind
}

func newFakeTariffs() *fakeTariffs {
	return &fakeTariffs{items: make(map[tariffKey]Tariff)}
}

func (f *fakeTariffs) Get(_ context.Context, id property.ID, kind Kind) (*Tariff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.items[tariffKey{id, kind}]
	if !ok {
		return nil, ErrTariffNotFound
	}
	return &Tariff{PropertyID: t.PropertyID, Kind: t.Kind, Price: t.Price, Derived: t.Derived, Version: t.Version}, nil
}

func (f *fakeTariffs) ListByProperty(_ context.Context, id property.ID) ([]*Tariff, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*Tariff
	for _, k := range Kinds {
		if t, ok := f.items[tariffKey{id, k}]; ok {
			out = append(out, &t)
		}
	}
	return out, nil
}

func (f *fakeTariffs) Save(_ context.Context, t *Tariff) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[tariffKey{t.PropertyID, t.Kind}] = Tariff{PropertyID: t.PropertyID, Kind: t.Kind, Price: t.Price, Derived: t.Derived, Version: t.Version + 1}
	f.writes = append(f.writes, t.Kind)
	return nil
}

type fakePromos map[string]*CodePromo

func (f fakePromos) ByCode(_ context.Context, code string) (*CodePromo, error) {
	p, ok := f[NormalizeCode(code)]
	if !ok {
		return nil, ErrPromoNotFound
	}
	return p, nil
}

func (f fakePromos) Save(_ context.Context, p *CodePromo) error {
	f[p.Code] = p
	return nil
}

// countingGuard records how many acquisitions were refused.
type countingGuard struct {
	inner   *KeyedGuard
	refused int
}

func (g *countingGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	release, ok, err := g.inner.Acquire(ctx, key)
	if !ok {
		g.refused++
	}
	return release, ok, err
}

var fixedNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func newEngine(tariffs *fakeTariffs) *Engine {
	return &Engine{Tariffs: tariffs, Promos: fakePromos{}, Guard: NewKeyedGuard(), Now: func() time.Time { return fixedNow }}
}

func xof(v int64) money.Money { return money.Must(v, "XOF") }

func price(t *testing.T, f *fakeTariffs, kind Kind) int64 {
	t.Helper()
	tr, err := f.Get(context.Background(), "p-1", kind)
	require.NoError(t, err)
	return tr.Price.Amount
}

func TestSetDailyTariffDerivesTiers(t *testing.T) {
	tariffs := newFakeTariffs()
	engine := newEngine(tariffs)

	_, err := engine.SetTariff(context.Background(), "p-1", KindDaily, xof(10000))
	require.NoError(t, err)

	assert.Equal(t, int64(10000), price(t, tariffs, KindDaily))
	assert.Equal(t, int64(59500), price(t, tariffs, KindWeekly))
	assert.Equal(t, int64(210000), price(t, tariffs, KindMonthly))
}

func TestDeriveIsIdempotent(t *testing.T) {
	tariffs := newFakeTariffs()
	engine := newEngine(tariffs)
	ctx := context.Background()

	_, err := engine.SetTariff(ctx, "p-1", KindDaily, xof(10000))
	require.NoError(t, err)
	writes := len(tariffs.writes)

	require.NoError(t, engine.DeriveTieredPrices(ctx, "p-1"))
	require.NoError(t, engine.DeriveTieredPrices(ctx, "p-1"))

	assert.Equal(t, writes, len(tariffs.writes), "no extra writes on unchanged daily tariff")
	assert.Equal(t, int64(59500), price(t, tariffs, KindWeekly))
	assert.Equal(t, int64(210000), price(t, tariffs, KindMonthly))
}

func TestDeriveKeepsExplicitTiers(t *testing.T) {
	tariffs := newFakeTariffs()
	engine := newEngine(tariffs)
	ctx := context.Background()

	_, err := engine.SetTariff(ctx, "p-1", KindWeekly, xof(50000))
	require.NoError(t, err)
	_, err = engine.SetTariff(ctx, "p-1", KindDaily, xof(10000))
	require.NoError(t, err)

	assert.Equal(t, int64(50000), price(t, tariffs, KindWeekly))
	assert.Equal(t, int64(210000), price(t, tariffs, KindMonthly))
}

func TestDeriveReplacesZeroTier(t *testing.T) {
	tariffs := newFakeTariffs()
	tariffs.items[tariffKey{"p-1", KindMonthly}] = Tariff{PropertyID: "p-1", Kind: KindMonthly, Price: xof(0)}
	engine := newEngine(tariffs)

	_, err := engine.SetTariff(context.Background(), "p-1", KindDaily, xof(10000))
	require.NoError(t, err)
	assert.Equal(t, int64(210000), price(t, tariffs, KindMonthly))
}

func TestDerivedWritesDoNotReenterDerivation(t *testing.T) {
	tariffs := newFakeTariffs()
	guard := &countingGuard{inner: NewKeyedGuard()}
	engine := &Engine{Tariffs: tariffs, Guard: guard, Now: func() time.Time { return fixedNow }}

	_, err := engine.SetTariff(context.Background(), "p-1", KindDaily, xof(10000))
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindDaily, KindWeekly, KindMonthly}, tariffs.writes)
	assert.Equal(t, 2, guard.refused, "each derived write is refused re-entry")

	release, ok, err := guard.inner.Acquire(context.Background(), derivationKey("p-1"))
	require.NoError(t, err)
	require.True(t, ok, "guard released after derivation")
	release()
}

func TestSetTariffRejectsNonPositivePrice(t *testing.T) {
	engine := newEngine(newFakeTariffs())
	_, err := engine.SetTariff(context.Background(), "p-1", KindDaily, xof(0))
	assert.True(t, errors.Is(err, failure.ErrValidation))
}

func TestPriceForBillingUnits(t *testing.T) {
	tariffs := newFakeTariffs()
	engine := newEngine(tariffs)
	ctx := context.Background()
	_, err := engine.SetTariff(ctx, "p-1", KindDaily, xof(10000))
	require.NoError(t, err)

	r := daterange.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 9, 0, 0, 0, 0, time.UTC)}

	cases := []struct {
		kind  Kind
		units int64
		gross int64
	}{
		{KindDaily, 8, 80000},
		{KindWeekly, 2, 119000},
		{KindMonthly, 1, 210000},
	}
	for _, tc := range cases {
		q, err := engine.PriceFor(ctx, "p-1", tc.kind, r, "")
		require.NoError(t, err)
		assert.Equal(t, tc.units, q.Units, tc.kind)
		assert.Equal(t, tc.gross, q.Gross.Amount, tc.kind)
	}
}

func TestPriceForMissingTariff(t *testing.T) {
	engine := newEngine(newFakeTariffs())
	r := daterange.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)}
	_, err := engine.PriceFor(context.Background(), "p-1", KindDaily, r, "")
	fe, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.KindPricing, fe.Kind)
	assert.Equal(t, failure.CodeNoTariff, fe.Code)
}

func TestPriceForPromo(t *testing.T) {
	tariffs := newFakeTariffs()
	engine := newEngine(tariffs)
	ctx := context.Background()
	_, err := engine.SetTariff(ctx, "p-1", KindDaily, xof(20000))
	require.NoError(t, err)

	promos := engine.Promos.(fakePromos)
	promos["TEN"] = &CodePromo{Code: "TEN", Kind: PromoPercent, Value: 10, Active: true}
	promos["BIG"] = &CodePromo{Code: "BIG", Kind: PromoFixed, Value: 1_000_000, Currency: "XOF", Active: true}
	promos["OLD"] = &CodePromo{Code: "OLD", Kind: PromoPercent, Value: 10, Active: true, ExpiresAt: fixedNow.Add(-time.Hour)}
	promos["MIN"] = &CodePromo{Code: "MIN", Kind: PromoPercent, Value: 10, Active: true, Threshold: 100000}
	promos["OFF"] = &CodePromo{Code: "OFF", Kind: PromoPercent, Value: 10}

	r := daterange.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)}

	q, err := engine.PriceFor(ctx, "p-1", KindDaily, r, "ten")
	require.NoError(t, err)
	assert.Equal(t, int64(40000), q.Base.Amount)
	assert.Equal(t, int64(4000), q.Discount.Amount)
	assert.Equal(t, int64(36000), q.Gross.Amount)

	q, err = engine.PriceFor(ctx, "p-1", KindDaily, r, "BIG")
	require.NoError(t, err)
	assert.Equal(t, int64(0), q.Gross.Amount, "floored at zero")

	for code, want := range map[string]string{
		"OLD":     failure.CodePromoExpired,
		"MIN":     failure.CodePromoThreshold,
		"OFF":     failure.CodePromoInvalid,
		"MISSING": failure.CodePromoInvalid,
	} {
		_, err := engine.PriceFor(ctx, "p-1", KindDaily, r, code)
		fe, ok := failure.As(err)
		require.True(t, ok, code)
		assert.Equal(t, failure.KindPricing, fe.Kind, code)
		assert.Equal(t, want, fe.Code, code)
	}
}

func TestKindUnits(t *testing.T) {
	assert.Equal(t, int64(1), KindWeekly.Units(1))
	assert.Equal(t, int64(1), KindWeekly.Units(7))
	assert.Equal(t, int64(2), KindWeekly.Units(8))
	assert.Equal(t, int64(2), KindMonthly.Units(31))
	assert.Equal(t, int64(3), KindDaily.Units(3))

	_, err := ParseKind("hourly")
	assert.ErrorIs(t, err, ErrUnknownKind)
	k, err := ParseKind("weekly")
	require.NoError(t, err)
	assert.Equal(t, KindWeekly, k)
}
