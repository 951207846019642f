package utils

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MissingIDs returns the candidates not present in existing. Order of the
// surviving candidates is preserved.
func MissingIDs(candidates, existing []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}

	missing := make([]primitive.ObjectID, 0, len(candidates))
	for _, id := range candidates {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	return missing
}

// FindMissingIDs computes which candidate annotations are not yet linked to
// the library, via a $setDifference against the membership rows. A library
// with no rows at all yields every candidate.
func FindMissingIDs(ctx context.Context, coll *mongo.Collection, libraryID primitive.ObjectID, candidates []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(candidates) == 0 {
		return []primitive.ObjectID{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"library_id": libraryID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         nil,
			"existingIds": bson.M{"$addToSet": "$user_book_id"},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":        0,
			"missingIds": bson.M{"$setDifference": bson.A{candidates, "$existingIds"}},
		}}},
	}

	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []struct {
		MissingIDs []primitive.ObjectID `bson:"missingIds"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return candidates, nil
	}
	return results[0].MissingIDs, nil
}
