package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/mindgraph/pkg/graph"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// MongoOptions configures the MongoDB backend.
type MongoOptions struct {
	URI        string // default "mongodb://localhost:27017"
	Database   string // default "mindgraph"
	Collection string // default "graphs"
}

// Mongo stores documents in a collection with a unique index on name.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// NewMongo connects to MongoDB and ensures the name index exists.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.URI == "" {
		opts.URI = "mongodb://localhost:27017"
	}
	if opts.Database == "" {
		opts.Database = "mindgraph"
	}
	if opts.Collection == "" {
		opts.Collection = "graphs"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create mongo index: %w", err)
	}
	return &Mongo{client: client, coll: coll, now: time.Now}, nil
}

// Get returns the document named name, or ErrNotFound.
func (s *Mongo) Get(ctx context.Context, name string) (*graph.Document, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	doc, err := s.get(ctx, name)
	observability.Store().OnStoreGet(ctx, BackendMongo, name, err == nil)
	return doc, err
}

func (s *Mongo) get(ctx context.Context, name string) (*graph.Document, error) {
	var doc graph.Document
	err := s.coll.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", name, err)
	}
	return &doc, nil
}

// Put stores the document. A first write inserts, so the unique name index
// rejects a racing first writer; later writes replace the revision read
// beforehand. Either conflict causes a retry instead of a lost revision.
func (s *Mongo) Put(ctx context.Context, doc *graph.Document) error {
	if err := checkName(doc.Name); err != nil {
		return err
	}

	var err error
	for range 5 {
		var prev *graph.Document
		prev, err = s.get(ctx, doc.Name)
		if err != nil && !IsNotFound(err) {
			break
		}
		stamp(doc, prev, s.now())

		if prev == nil {
			_, err = s.coll.InsertOne(ctx, doc)
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			break
		}

		var res *mongo.UpdateResult
		res, err = s.coll.ReplaceOne(ctx, bson.M{"name": doc.Name, "revision": prev.Revision}, doc)
		if err == nil && res.MatchedCount == 0 {
			err = errors.New("concurrent update")
			continue
		}
		break
	}
	if err != nil {
		err = fmt.Errorf("mongo put %s: %w", doc.Name, err)
	}
	observability.Store().OnStorePut(ctx, BackendMongo, doc.Name, len(doc.Nodes), err)
	return err
}

// List returns the stored document names, sorted.
func (s *Mongo) List(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "name", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo list: %w", err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Close disconnects the client.
func (s *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*Mongo)(nil)
