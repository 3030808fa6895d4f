package notestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	defaultMongoDatabase = "friendship-notes"
	mongoCollection      = "notes"
)

type noteDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Note      string             `bson:"note"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Mongo stores each note as its own document; the id is the ObjectID hex.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

func OpenMongo(ctx context.Context, uri string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(MongoDatabaseName(uri)).Collection(mongoCollection)
	return &Mongo{client: client, coll: coll, now: time.Now}, nil
}

// MongoDatabaseName takes the database from the connection string path,
// falling back to a fixed name when the string has none.
func MongoDatabaseName(uri string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || cs.Database == "" {
		return defaultMongoDatabase
	}
	return cs.Database
}

func (m *Mongo) Save(ctx context.Context, note string) (string, error) {
	res, err := m.coll.InsertOne(ctx, noteDocument{Note: note, CreatedAt: m.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("insert note: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert note: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (m *Mongo) Get(ctx context.Context, id string) (string, bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", false, nil
	}

	var doc noteDocument
	err = m.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find note: %w", err)
	}
	return doc.Note, true, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
