package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecgard/accolade/internal/ids"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo maps each collection onto a MongoDB collection, using the
// document id as _id. Batch requires a replica set (transactions).
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*Mongo)(nil)

// OpenMongo connects to uri and selects the database.
func OpenMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if database == "" {
		return nil, errors.New("mongodb: database name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Get(ctx context.Context, collection, id string) (*Document, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("getting %s/%s: %w", collection, id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s/%s: %w", collection, id, err)
	}
	return fromBSON(raw), nil
}

// mongoFind renders q into a filter and find options.
func mongoFind(q Query) (bson.M, *options.FindOptions) {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}

	opts := options.Find()
	sort := bson.D{}
	if q.OrderBy != "" {
		dir := 1
		if q.Direction == Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: q.OrderBy, Value: dir})
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})
	opts.SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return filter, opts
}

func (m *Mongo) Find(ctx context.Context, q Query) ([]*Document, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("%w: query requires a collection", ErrInvalidOp)
	}
	filter, opts := mongoFind(q)

	cursor, err := m.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", q.Collection, err)
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", q.Collection, err)
	}
	docs := make([]*Document, 0, len(raws))
	for _, raw := range raws {
		docs = append(docs, fromBSON(raw))
	}
	return docs, nil
}

func (m *Mongo) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := ids.New()
	if err := m.Create(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Mongo) Create(ctx context.Context, collection, id string, data map[string]any) error {
	return m.apply(ctx, CreateOp(collection, id, data))
}

func (m *Mongo) Set(ctx context.Context, collection, id string, data map[string]any) error {
	return m.apply(ctx, SetOp(collection, id, data))
}

func (m *Mongo) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return m.apply(ctx, UpdateOp(collection, id, fields))
}

func (m *Mongo) Delete(ctx context.Context, collection, id string) error {
	return m.apply(ctx, DeleteOp(collection, id))
}

// Batch runs every op in one multi-document transaction.
func (m *Mongo) Batch(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		if err := op.validate(); err != nil {
			return err
		}
	}

	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting batch session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sctx mongo.SessionContext) (any, error) {
		for _, op := range ops {
			if err := m.apply(sctx, op); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (m *Mongo) apply(ctx context.Context, op Op) error {
	if err := op.validate(); err != nil {
		return err
	}
	coll := m.db.Collection(op.Collection)
	byID := bson.M{"_id": op.ID}

	switch op.Kind {
	case OpCreate:
		_, err := coll.InsertOne(ctx, toBSON(op.ID, op.Data))
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return fmt.Errorf("creating %s/%s: %w", op.Collection, op.ID, ErrAlreadyExists)
			}
			return fmt.Errorf("creating %s/%s: %w", op.Collection, op.ID, err)
		}
	case OpSet:
		_, err := coll.ReplaceOne(ctx, byID, toBSON(op.ID, op.Data), options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("setting %s/%s: %w", op.Collection, op.ID, err)
		}
	case OpUpdate:
		res, err := coll.UpdateOne(ctx, mongoUpdateFilter(op), bson.M{"$set": bson.M(op.Data)})
		if err != nil {
			return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, err)
		}
		if res.MatchedCount == 0 {
			cause := ErrNotFound
			if len(op.Where) > 0 {
				n, err := coll.CountDocuments(ctx, byID)
				if err != nil {
					return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, err)
				}
				if n > 0 {
					cause = ErrPrecondition
				}
			}
			return fmt.Errorf("updating %s/%s: %w", op.Collection, op.ID, cause)
		}
	case OpDelete:
		if _, err := coll.DeleteOne(ctx, byID); err != nil {
			return fmt.Errorf("deleting %s/%s: %w", op.Collection, op.ID, err)
		}
	default:
		return fmt.Errorf("%w: unknown op %s", ErrInvalidOp, op.Kind)
	}
	return nil
}

// mongoUpdateFilter selects the op's document, guarded by op.Where.
func mongoUpdateFilter(op Op) bson.M {
	filter := bson.M{"_id": op.ID}
	for _, f := range op.Where {
		filter[f.Field] = f.Value
	}
	return filter
}

func toBSON(id string, data map[string]any) bson.M {
	doc := make(bson.M, len(data)+1)
	for k, v := range data {
		doc[k] = v
	}
	doc["_id"] = id
	return doc
}

func fromBSON(raw bson.M) *Document {
	id, _ := raw["_id"].(string)
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		data[k] = normalizeBSON(v)
	}
	return &Document{ID: id, Data: data}
}

// normalizeBSON converts driver types into plain Go values.
func normalizeBSON(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeBSON(val)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalizeBSON(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeBSON(val)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	}
	return v
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
