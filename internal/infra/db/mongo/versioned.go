package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"babiloc/internal/app/uow"
)

// replaceVersioned writes doc (already carrying version+1) only if the stored
// version is still `version`. A missing document is inserted.
func replaceVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any) error {
	filter := bson.M{"_id": id, "version": version}
	res, err := col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s version %d is stale", uow.ErrConflict, id, version)
		}
		return mapErr(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return fmt.Errorf("%w: %s version %d is stale", uow.ErrConflict, id, version)
	}
	return nil
}
