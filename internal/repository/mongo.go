package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/grid-nexus/nexus-api/internal/database"
	"github.com/grid-nexus/nexus-api/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoCommentStore keeps one document per article holding the whole collection
type mongoCommentStore struct {
	coll *mongo.Collection
}

// NewMongoCommentStore creates a comment store backed by MongoDB
func NewMongoCommentStore(m *database.Mongo) CommentStore {
	return &mongoCommentStore{coll: m.DB.Collection(database.CollectionThreads)}
}

func (s *mongoCommentStore) Load(ctx context.Context, articleID string) (*models.CommentCollection, error) {
	var coll models.CommentCollection
	err := s.coll.FindOne(ctx, bson.M{"_id": articleID}).Decode(&coll)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &models.CommentCollection{ArticleID: articleID, Comments: []*models.Comment{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if coll.Comments == nil {
		coll.Comments = []*models.Comment{}
	}
	return &coll, nil
}

// Save inserts the first version under a new epoch or replaces the
// document matching the loaded version
func (s *mongoCommentStore) Save(ctx context.Context, coll *models.CommentCollection) error {
	doc := *coll
	doc.Version = coll.Version + 1

	if coll.Version == 0 {
		doc.Epoch = uuid.New().String()
		_, err := s.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("failed to insert thread: %w", err)
		}
		coll.Epoch = doc.Epoch
		coll.Version = doc.Version
		return nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": coll.ArticleID, "version": coll.Version}, doc)
	if err != nil {
		return fmt.Errorf("failed to replace thread: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}

	coll.Version = doc.Version
	return nil
}

func (s *mongoCommentStore) Count(ctx context.Context) (int, error) {
	cursor, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$size", Value: "$comments"}}}}},
		}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// mongoUserRepo is the MongoDB implementation of UserRepository
type mongoUserRepo struct {
	coll *mongo.Collection
}

// NewMongoUserRepo creates a user repository backed by MongoDB
func NewMongoUserRepo(m *database.Mongo) UserRepository {
	return &mongoUserRepo{coll: m.DB.Collection(database.CollectionUsers)}
}

// Upsert inserts or updates a user by email
func (r *mongoUserRepo) Upsert(ctx context.Context, user *models.User) error {
	update := bson.M{
		"$set": bson.M{
			"name":       user.Name,
			"avatar_url": user.AvatarURL,
			"role":       user.Role,
			"verified":   user.Verified,
			"expert":     user.Expert,
			"active":     user.Active,
			"updated_at": time.Now(),
		},
		"$setOnInsert": bson.M{
			"_id":        user.ID,
			"created_at": user.CreatedAt,
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"email": user.Email}, update, options.Update().SetUpsert(true))
	return err
}

// BatchInsert inserts users unordered so one duplicate does not stop the batch
func (r *mongoUserRepo) BatchInsert(ctx context.Context, users []*models.User) (int, error) {
	if len(users) == 0 {
		return 0, nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(users))
	for _, u := range users {
		cp := *u
		cp.UpdatedAt = now
		docs = append(docs, cp)
	}

	return insertMany(ctx, r.coll, docs)
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"email": email})
}

func (r *mongoUserRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	return distinctIDs(ctx, r.coll)
}

func (r *mongoUserRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// mongoArticleRepo is the MongoDB implementation of ArticleRepository
type mongoArticleRepo struct {
	coll *mongo.Collection
}

// NewMongoArticleRepo creates an article repository backed by MongoDB
func NewMongoArticleRepo(m *database.Mongo) ArticleRepository {
	return &mongoArticleRepo{coll: m.DB.Collection(database.CollectionArticles)}
}

func (r *mongoArticleRepo) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	now := time.Now()
	docs := make([]interface{}, 0, len(articles))
	for _, a := range articles {
		cp := *a
		if cp.Tags == nil {
			cp.Tags = []string{}
		}
		cp.UpdatedAt = now
		docs = append(docs, cp)
	}

	return insertMany(ctx, r.coll, docs)
}

func (r *mongoArticleRepo) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"_id": id})
}

func (r *mongoArticleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	return exists(ctx, r.coll, bson.M{"slug": slug})
}

func (r *mongoArticleRepo) GetAllIDs(ctx context.Context) ([]string, error) {
	return distinctIDs(ctx, r.coll)
}

func (r *mongoArticleRepo) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// insertMany returns how many documents were written, treating
// per-document write errors (duplicates) as skipped rows
func insertMany(ctx context.Context, coll *mongo.Collection, docs []interface{}) (int, error) {
	res, err := coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return len(res.InsertedIDs), nil
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) && bulkErr.WriteConcernError == nil {
		return len(docs) - len(bulkErr.WriteErrors), nil
	}
	return 0, err
}

func exists(ctx context.Context, coll *mongo.Collection, filter bson.M) (bool, error) {
	n, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	return n > 0, err
}

func distinctIDs(ctx context.Context, coll *mongo.Collection) ([]string, error) {
	values, err := coll.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
