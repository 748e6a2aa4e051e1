package commission

import "babiloc/internal/domain/shared/money"

// RatePercent is the platform's fixed cut of every reservation.
const RatePercent int64 = 15

type Split struct {
	Gross      money.Money
	Commission money.Money
	OwnerNet   money.Money
}

// Calculate splits gross into commission and owner net. OwnerNet is gross minus
// commission so the parts always add back to gross exactly.
func Calculate(gross money.Money) Split {
	c := gross.Percent(RatePercent)
	return Split{
		Gross:      gross,
		Commission: c,
		OwnerNet:   money.Money{Amount: gross.Amount - c.Amount, Currency: gross.Currency},
	}
}
