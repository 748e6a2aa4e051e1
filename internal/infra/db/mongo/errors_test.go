package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"babiloc/internal/app/uow"
	domainbooking "babiloc/internal/domain/booking"
)

func TestMapErrTurnsWriteConflictIntoRetryableConflict(t *testing.T) {
	err := mapErr(mongo.CommandError{Code: writeConflictCode, Message: "WriteConflict"})
	assert.ErrorIs(t, err, uow.ErrConflict)

	err = mapErr(mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}})
	assert.ErrorIs(t, err, uow.ErrConflict)
}

func TestMapErrPassesOtherErrors(t *testing.T) {
	plain := errors.New("boom")
	assert.Same(t, plain, mapErr(plain))
	assert.NoError(t, mapErr(nil))
}

func TestNotFoundUsesSentinel(t *testing.T) {
	assert.ErrorIs(t, notFound(mongo.ErrNoDocuments, domainbooking.ErrNotFound), domainbooking.ErrNotFound)
}
