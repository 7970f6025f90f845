package registry

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crmagente/ranking/internal/domain/identity"
)

// MongoDirectory implements Directory over the users collection.
type MongoDirectory struct {
	col *mongo.Collection
}

// NewMongoDirectory creates a directory over db's named collection.
func NewMongoDirectory(db *mongo.Database, collection string) *MongoDirectory {
	return &MongoDirectory{col: db.Collection(collection)}
}

// Snapshot loads every registry entry in one query. The registry holds a
// few hundred agents at most, so a full snapshot per computation is
// cheaper than one lookup per ranking entry.
func (d *MongoDirectory) Snapshot(ctx context.Context) (map[identity.Key]Agent, error) {
	projection := bson.M{"username": 1, "role": 1, "team": 1, "supervisor": 1}
	cur, err := d.col.Find(ctx, bson.M{}, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("registry snapshot: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var agents []Agent
	if err := cur.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("registry decode: %w", err)
	}

	out := make(map[identity.Key]Agent, len(agents))
	for _, a := range agents {
		key := identity.Normalize(a.Username)
		if key == identity.Unknown {
			continue
		}
		// First entry wins on duplicate normalized usernames.
		if _, exists := out[key]; !exists {
			out[key] = a
		}
	}
	return out, nil
}
