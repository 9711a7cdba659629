package repository

import (
	"context"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PostRepository struct {
	col *mongo.Collection
}

func NewPostRepository(db *mongo.Database) *PostRepository {
	return &PostRepository{col: db.Collection(PostsCollection)}
}

func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	now := time.Now().UTC()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.CreatedAt, p.UpdatedAt = now, now
	p.Likes = idsOrEmpty(p.Likes)
	p.Comments = idsOrEmpty(p.Comments)

	_, err := r.col.InsertOne(ctx, p)
	return translate(err)
}

func (r *PostRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var p models.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindAll returns every post, newest first.
func (r *PostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.M{})
}

// FindByUser returns the posts owned by userID, newest first.
func (r *PostRepository) FindByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user": userID})
}

func (r *PostRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, inIDs(ids))
}

func (r *PostRepository) find(ctx context.Context, filter bson.M) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostRepository) AddLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	return r.updateOne(ctx, postID, bson.M{"$addToSet": bson.M{"likes": userID}})
}

func (r *PostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) error {
	return r.updateOne(ctx, postID, bson.M{"$pull": bson.M{"likes": userID}})
}

func (r *PostRepository) AddComment(ctx context.Context, postID, commentID primitive.ObjectID) error {
	return r.updateOne(ctx, postID, bson.M{"$push": bson.M{"comments": commentID}})
}

func (r *PostRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["$set"] = bson.M{"updatedAt": time.Now().UTC()}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
