package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staydesk/internal/app/snapshot"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

const defaultSnapshotID = "calendar"

// SnapshotStore keeps the calendar snapshot as a single versioned document. A save
// based on a stale version fails with ErrConcurrentUpdate, which stops two instances
// from silently overwriting each other.
type SnapshotStore struct {
	col     *mongo.Collection
	id      string
	version int64
}

func NewSnapshotStore(db *mongo.Database, id string) *SnapshotStore {
	if id == "" {
		id = defaultSnapshotID
	}
	return &SnapshotStore{col: db.Collection("staydesk_snapshots"), id: id}
}

type snapshotDocument struct {
	ID      string    `bson:"_id"`
	Data    []byte    `bson:"data"`
	SavedAt time.Time `bson:"saved_at"`
	Version int64     `bson:"version"`
}

func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var doc snapshotDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": s.id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			s.version = 0
			return nil, snapshot.ErrNoSnapshot
		}
		return nil, err
	}
	s.version = doc.Version
	return doc.Data, nil
}

func (s *SnapshotStore) Save(ctx context.Context, data []byte) error {
	doc := snapshotDocument{ID: s.id, Data: data, SavedAt: time.Now().UTC(), Version: s.version + 1}
	filter := bson.M{"_id": s.id, "version": s.version}
	res, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	s.version = doc.Version
	return nil
}

var _ snapshot.Store = (*SnapshotStore)(nil)
