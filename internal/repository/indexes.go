package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the queries in this package rely on.
// Called on startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("idx_email").SetUnique(true)},
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetName("idx_username")},
			{Keys: bson.D{{Key: "savedPosts", Value: 1}}, Options: options.Index().SetName("idx_saved_posts")},
		},
		PostsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("idx_user_created")},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "post", Value: 1}}, Options: options.Index().SetName("idx_post")},
		},
		MessagesCollection: {
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}, {Key: "createdAt", Value: 1}}, Options: options.Index().SetName("idx_pair_created")},
			{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "isRead", Value: 1}}, Options: options.Index().SetName("idx_recipient_unread")},
		},
	}

	for collection, models := range specs {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}
