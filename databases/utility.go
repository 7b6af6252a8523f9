package databases

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if page < 1 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

// getPaginatedStages returns the $skip/$limit stages for an aggregation. A non-positive
// limit returns no stages so the whole result set comes back.
func (mp *mongoPaginate) getPaginatedStages() []bson.M {
	if mp.limit <= 0 {
		return nil
	}
	skip := mp.page*mp.limit - mp.limit
	return []bson.M{{"$skip": skip}, {"$limit": mp.limit}}
}

// lookupUser returns the pipeline stages that replace the ObjectID stored in field with the
// matching user summary. The password hash never leaves the users collection.
func lookupUser(field string, keepRole bool) []bson.M {
	project := bson.M{"password": 0, "createdAt": 0}
	if !keepRole {
		project["role"] = 0
	}
	return []bson.M{
		{"$lookup": bson.M{
			"from":         userName,
			"localField":   field,
			"foreignField": "_id",
			"as":           field,
			"pipeline":     []bson.M{{"$project": project}},
		}},
		{"$unwind": bson.M{
			"path":                       "$" + field,
			"preserveNullAndEmptyArrays": true,
		}},
	}
}

// drain decodes every document of a cursor into results and always releases it
func drain(ctx context.Context, cursor CursorHelper, results interface{}) error {
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}
