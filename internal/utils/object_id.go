package utils

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToObjectIDs converts a batch of hex ids, failing on the first malformed one.
func ToObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}
