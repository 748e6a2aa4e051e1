package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"babiloc/internal/app/uow"
)

const writeConflictCode = 112

// mapErr turns transaction write conflicts into uow.ErrConflict so the command can be retried.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(writeConflictCode)) {
		return fmt.Errorf("%w: %v", uow.ErrConflict, err)
	}
	return err
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return sentinel
	}
	return mapErr(err)
}

const namespaceExistsCode = 48

func isNamespaceExists(err error) bool {
	var ce mongo.CommandError
	return errors.As(err, &ce) && ce.Code == namespaceExistsCode
}
