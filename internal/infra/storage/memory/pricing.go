package memory

import (
	"context"
	"sort"

	"babiloc/internal/app/uow"
	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/events"
)

func cloneTariff(t *domainpricing.Tariff) *domainpricing.Tariff {
	cp := *t
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}

type tariffRepo struct{ u *Unit }

func (r tariffRepo) Get(ctx context.Context, id domainproperty.ID, kind domainpricing.Kind) (*domainpricing.Tariff, error) {
	t, ok := r.u.state.tariffs[tariffKey{property: id, kind: kind}]
	if !ok {
		return nil, domainpricing.ErrTariffNotFound
	}
	return cloneTariff(t), nil
}

func (r tariffRepo) ListByProperty(ctx context.Context, id domainproperty.ID) ([]*domainpricing.Tariff, error) {
	var out []*domainpricing.Tariff
	for key, t := range r.u.state.tariffs {
		if key.property == id {
			out = append(out, cloneTariff(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind.Days() < out[j].Kind.Days() })
	return out, nil
}

func (r tariffRepo) Save(ctx context.Context, t *domainpricing.Tariff) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	key := tariffKey{property: t.PropertyID, kind: t.Kind}
	if cur, ok := r.u.state.tariffs[key]; ok && cur.Version != t.Version {
		return uow.ErrConflict
	}
	t.Version++
	r.u.state.tariffs[key] = cloneTariff(t)
	return nil
}

type promoRepo struct{ u *Unit }

func (r promoRepo) ByCode(ctx context.Context, code string) (*domainpricing.CodePromo, error) {
	p, ok := r.u.state.promos[domainpricing.NormalizeCode(code)]
	if !ok {
		return nil, domainpricing.ErrPromoNotFound
	}
	cp := *p
	return &cp, nil
}

func (r promoRepo) Save(ctx context.Context, p *domainpricing.CodePromo) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	cp := *p
	r.u.state.promos[domainpricing.NormalizeCode(p.Code)] = &cp
	return nil
}
