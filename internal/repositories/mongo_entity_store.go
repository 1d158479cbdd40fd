package repositories

import (
	"context"
	"fmt"
	"regexp"

	"github.com/anonto42/reaction-ledger/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Document is a MongoDB entity that can be keyed by its hex ObjectID
type Document interface {
	EntityKey() string
}

// MongoEntitySpec describes how one content kind is stored in MongoDB
type MongoEntitySpec struct {
	Kind       models.EntityKind
	Collection string
	// SearchFields are matched case-insensitively by Search
	SearchFields []string
	// Projection limits the fields returned by BulkGet. Empty means all fields.
	Projection []string
	// LikesField and DislikesField hold the mirrored counters. Empty disables mirroring.
	LikesField    string
	DislikesField string
}

// Mongo specs of the content kinds stored in MongoDB
var (
	VideoSpec = MongoEntitySpec{
		Kind:          models.KindVideo,
		Collection:    "videos",
		SearchFields:  []string{"title", "artist"},
		Projection:    []string{"title", "artist", "type", "likes_count", "dislikes_count"},
		LikesField:    "likes_count",
		DislikesField: "dislikes_count",
	}
	PostSpec = MongoEntitySpec{
		Kind:          models.KindPost,
		Collection:    "posts",
		SearchFields:  []string{"content", "hashtags"},
		Projection:    []string{"content", "media_type", "user_id", "likes_count", "dislikes_count"},
		LikesField:    "likes_count",
		DislikesField: "dislikes_count",
	}
	MemorySpec = MongoEntitySpec{
		Kind:         models.KindMemory,
		Collection:   "memories",
		SearchFields: []string{"content"},
		Projection:   []string{"content"},
	}
	PlaylistSpec = MongoEntitySpec{
		Kind:         models.KindPlaylist,
		Collection:   "playlists",
		SearchFields: []string{"name", "description"},
		Projection:   []string{"name", "description"},
	}
	PodcastSpec = MongoEntitySpec{
		Kind:          models.KindPodcast,
		Collection:    "podcasts",
		SearchFields:  []string{"title", "host_name", "guest_name", "description"},
		Projection:    []string{"title", "host_name", "guest_name", "description", "likes_count", "dislikes_count"},
		LikesField:    "likes_count",
		DislikesField: "dislikes_count",
	}
)

// MongoEntityStore implements the entity store adapter of one kind on a MongoDB collection
type MongoEntityStore[T Document] struct {
	spec        MongoEntitySpec
	collection  *mongo.Collection
	searchLimit int64
}

// NewMongoEntityStore creates a store for spec on db. searchLimit caps the ids one Search returns.
func NewMongoEntityStore[T Document](db *mongo.Database, spec MongoEntitySpec, searchLimit int64) *MongoEntityStore[T] {
	return &MongoEntityStore[T]{
		spec:        spec,
		collection:  db.Collection(spec.Collection),
		searchLimit: searchLimit,
	}
}

// Kind returns the content kind served by the store
func (s *MongoEntityStore[T]) Kind() models.EntityKind {
	return s.spec.Kind
}

// ValidID reports whether id is a hex ObjectID
func (s *MongoEntityStore[T]) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// Exists checks whether a document with id exists
func (s *MongoEntityStore[T]) Exists(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, fmt.Errorf("invalid %s ID format: %w", s.spec.Kind, err)
	}
	n, err := s.collection.CountDocuments(ctx, bson.M{"_id": objID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// BulkGet fetches every document of ids in one query. Unknown or malformed ids are absent from the result.
func (s *MongoEntityStore[T]) BulkGet(ctx context.Context, ids []string) (map[string]any, error) {
	result := make(map[string]any, len(ids))
	objIDs := toObjectIDs(ids)
	if len(objIDs) == 0 {
		return result, nil
	}

	findOptions := options.Find()
	if len(s.spec.Projection) > 0 {
		projection := bson.M{}
		for _, f := range s.spec.Projection {
			projection[f] = 1
		}
		findOptions.SetProjection(projection)
	}

	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []T
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		result[d.EntityKey()] = d
	}
	return result, nil
}

// Search returns the ids of documents whose search fields contain query, ignoring case
func (s *MongoEntityStore[T]) Search(ctx context.Context, query string) ([]string, error) {
	filter := searchFilter(s.spec.SearchFields, query)
	if filter == nil {
		return nil, nil
	}
	findOptions := options.Find().SetProjection(bson.M{"_id": 1})
	if s.searchLimit > 0 {
		findOptions.SetLimit(s.searchLimit)
	}

	cursor, err := s.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var hits []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err = cursor.All(ctx, &hits); err != nil {
		return nil, err
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID.Hex()
	}
	return ids, nil
}

// SyncCounters overwrites the mirrored counters with the ledger totals
func (s *MongoEntityStore[T]) SyncCounters(ctx context.Context, id string, likes, dislikes int64) error {
	if s.spec.LikesField == "" {
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid %s ID format: %w", s.spec.Kind, err)
	}
	_, err = s.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{
		s.spec.LikesField:    likes,
		s.spec.DislikesField: dislikes,
	}})
	return err
}

// DecrementCounters lowers the mirrored counters by the number of removed reactions
func (s *MongoEntityStore[T]) DecrementCounters(ctx context.Context, id string, likes, dislikes int64) error {
	if s.spec.LikesField == "" || (likes == 0 && dislikes == 0) {
		return nil
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid %s ID format: %w", s.spec.Kind, err)
	}
	_, err = s.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{
		s.spec.LikesField:    -likes,
		s.spec.DislikesField: -dislikes,
	}})
	return err
}

// EnsureIndexes creates the text lookup indexes of the search fields
func (s *MongoEntityStore[T]) EnsureIndexes(ctx context.Context) error {
	indexes := make([]mongo.IndexModel, 0, len(s.spec.SearchFields))
	for _, f := range s.spec.SearchFields {
		indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
	}
	if len(indexes) == 0 {
		return nil
	}
	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// searchFilter builds an $or of literal, case-insensitive regex matches over fields
func searchFilter(fields []string, query string) bson.M {
	if query == "" || len(fields) == 0 {
		return nil
	}
	re := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: re})
	}
	return bson.M{"$or": or}
}

func toObjectIDs(ids []string) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		if _, dup := seen[objID]; dup {
			continue
		}
		seen[objID] = struct{}{}
		out = append(out, objID)
	}
	return out
}
