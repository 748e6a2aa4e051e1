package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "babiloc/internal/domain/pricing"
	domainproperty "babiloc/internal/domain/property"
	"babiloc/internal/domain/shared/money"
)

type TariffRepository struct {
	col *mongo.Collection
}

func NewTariffRepository(db *mongo.Database) *TariffRepository {
	return &TariffRepository{col: db.Collection(colTariffs)}
}

func tariffDocID(id domainproperty.ID, kind domainpricing.Kind) string {
	return string(id) + ":" + string(kind)
}

func (r *TariffRepository) Get(ctx context.Context, id domainproperty.ID, kind domainpricing.Kind) (*domainpricing.Tariff, error) {
	var doc tariffDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": tariffDocID(id, kind)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainpricing.ErrTariffNotFound)
	}
	return doc.toAggregate(), nil
}

func (r *TariffRepository) ListByProperty(ctx context.Context, id domainproperty.ID) ([]*domainpricing.Tariff, error) {
	cur, err := r.col.Find(ctx, bson.M{"property_id": string(id)})
	if err != nil {
		return nil, mapErr(err)
	}
	var docs []tariffDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mapErr(err)
	}
	out := make([]*domainpricing.Tariff, 0, len(docs))
	for _, kind := range domainpricing.Kinds {
		for _, d := range docs {
			if d.Kind == string(kind) {
				out = append(out, d.toAggregate())
			}
		}
	}
	return out, nil
}

func (r *TariffRepository) Save(ctx context.Context, t *domainpricing.Tariff) error {
	doc := tariffDocument{
		ID:         tariffDocID(t.PropertyID, t.Kind),
		PropertyID: string(t.PropertyID),
		Kind:       string(t.Kind),
		Price:      t.Price,
		Derived:    t.Derived,
		UpdatedAt:  t.UpdatedAt,
		Version:    t.Version + 1,
	}
	if err := replaceVersioned(ctx, r.col, doc.ID, t.Version, doc); err != nil {
		return err
	}
	t.Version = doc.Version
	return nil
}

type tariffDocument struct {
	ID         string      `bson:"_id"`
	PropertyID string      `bson:"property_id"`
	Kind       string      `bson:"kind"`
	Price      money.Money `bson:"price"`
	Derived    bool        `bson:"derived"`
	UpdatedAt  time.Time   `bson:"updated_at"`
	Version    int64       `bson:"version"`
}

func (d tariffDocument) toAggregate() *domainpricing.Tariff {
	return &domainpricing.Tariff{
		PropertyID: domainproperty.ID(d.PropertyID),
		Kind:       domainpricing.Kind(d.Kind),
		Price:      d.Price,
		Derived:    d.Derived,
		UpdatedAt:  d.UpdatedAt.UTC(),
		Version:    d.Version,
	}
}

type PromoRepository struct {
	col *mongo.Collection
}

func NewPromoRepository(db *mongo.Database) *PromoRepository {
	return &PromoRepository{col: db.Collection(colPromos)}
}

func (r *PromoRepository) ByCode(ctx context.Context, code string) (*domainpricing.CodePromo, error) {
	var doc promoDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": domainpricing.NormalizeCode(code)}).Decode(&doc); err != nil {
		return nil, notFound(err, domainpricing.ErrPromoNotFound)
	}
	return &domainpricing.CodePromo{
		Code:      doc.Code,
		Kind:      domainpricing.PromoKind(doc.Kind),
		Value:     doc.Value,
		Currency:  doc.Currency,
		Threshold: doc.Threshold,
		ExpiresAt: doc.ExpiresAt.UTC(),
		Active:    doc.Active,
		CreatedAt: doc.CreatedAt.UTC(),
	}, nil
}

func (r *PromoRepository) Save(ctx context.Context, p *domainpricing.CodePromo) error {
	code := domainpricing.NormalizeCode(p.Code)
	doc := promoDocument{
		Code:      code,
		Kind:      string(p.Kind),
		Value:     p.Value,
		Currency:  p.Currency,
		Threshold: p.Threshold,
		ExpiresAt: p.ExpiresAt,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": code}, doc, options.Replace().SetUpsert(true))
	return mapErr(err)
}

type promoDocument struct {
	Code      string    `bson:"_id"`
	Kind      string    `bson:"kind"`
	Value     int64     `bson:"value"`
	Currency  string    `bson:"currency"`
	Threshold int64     `bson:"threshold"`
	ExpiresAt time.Time `bson:"expires_at"`
	Active    bool      `bson:"active"`
	CreatedAt time.Time `bson:"created_at"`
}
