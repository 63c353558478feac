package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/releasecal/pkg/errors"
	"github.com/matzehuels/releasecal/pkg/release"
)

// Mongo reads every document of a MongoDB collection.
type Mongo struct {
	uri        string // connection string without the collection parameter
	database   string
	collection string
	timeout    time.Duration
}

// NewMongo returns a source for the collection named by the URI's
// "collection" query parameter (or collection) in the URI's database.
func NewMongo(uri, collection string, connectTimeout time.Duration) (*Mongo, error) {
	if err := errors.ValidateURL(uri, "mongodb", "mongodb+srv"); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "mongo uri")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "parse mongo uri")
	}

	q := u.Query()
	if c := q.Get("collection"); c != "" {
		collection = c
	}
	q.Del("collection")
	u.RawQuery = q.Encode()

	db := strings.Trim(u.Path, "/")
	if db == "" {
		return nil, errors.New(errors.ErrCodeInvalidSource, "mongo uri must name a database")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	if err := errors.ValidateIdentifier(collection); err != nil {
		return nil, err
	}
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	return &Mongo{uri: u.String(), database: db, collection: collection, timeout: connectTimeout}, nil
}

func (s *Mongo) Name() string {
	return fmt.Sprintf("mongodb/%s.%s", s.database, s.collection)
}

func (s *Mongo) Load(ctx context.Context) ([]release.Row, error) {
	client, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	cur, err := client.Database(s.database).Collection(s.collection).Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "find in %s", s.Name())
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read %s", s.Name())
	}

	rows := make([]release.Row, len(docs))
	for i, d := range docs {
		row := make(release.Row, len(d))
		for k, v := range d {
			row[k] = fromBSON(v)
		}
		rows[i] = row
	}
	return rows, nil
}

// connect dials and pings the server, retrying with exponential backoff
// until the connect timeout elapses.
func (s *Mongo) connect(ctx context.Context) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "connect %s", s.Name())
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.timeout
	err = backoff.Retry(func() error {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return client.Ping(pctx, readpref.Primary())
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping %s", s.Name())
	}
	return client, nil
}

func fromBSON(v any) any {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.A:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(fromBSON(p))
		}
		return strings.Join(parts, ", ")
	case int32:
		return int64(x)
	}
	return v
}
