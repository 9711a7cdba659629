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

type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(MessagesCollection)}
}

func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = m.CreatedAt
	_, err := r.col.InsertOne(ctx, m)
	return translate(err)
}

// FindBetween returns the messages exchanged by a and b, oldest first.
func (r *MessageRepository) FindBetween(ctx context.Context, a, b primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": a, "recipient": b},
		bson.M{"sender": b, "recipient": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

// FindInvolving returns every message userID sent or received, newest first.
func (r *MessageRepository) FindInvolving(ctx context.Context, userID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, involving(userID), opts)
}

func (r *MessageRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Message, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	msgs := []models.Message{}
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead flips every unread message from sender to recipient to read.
func (r *MessageRepository) MarkRead(ctx context.Context, sender, recipient primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"sender": sender, "recipient": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// AggregateConversations runs the directory pipeline for userID.
func (r *MessageRepository) AggregateConversations(ctx context.Context, userID primitive.ObjectID) ([]models.ConversationSummary, error) {
	cur, err := r.col.Aggregate(ctx, ConversationPipeline(userID))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ConversationSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func involving(userID primitive.ObjectID) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "sender", Value: userID}},
		bson.D{{Key: "recipient", Value: userID}},
	}}}
}

// ConversationPipeline groups userID's messages by counterpart. Messages are
// sorted newest first before $group so $first picks the latest message of
// each conversation; only unread messages addressed to userID are counted.
func ConversationPipeline(userID primitive.ObjectID) mongo.Pipeline {
	counterpart := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$eq", Value: bson.A{"$sender", userID}}},
		"$recipient",
		"$sender",
	}}}
	unreadToUser := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{"$recipient", userID}}},
			bson.D{{Key: "$eq", Value: bson.A{"$isRead", false}}},
		}}},
		1,
		0,
	}}}

	return mongo.Pipeline{
		{{Key: "$match", Value: involving(userID)}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: counterpart},
			{Key: "lastMessage", Value: bson.D{{Key: "$first", Value: "$text"}}},
			{Key: "lastMessageTime", Value: bson.D{{Key: "$first", Value: "$createdAt"}}},
			{Key: "unreadCount", Value: bson.D{{Key: "$sum", Value: unreadToUser}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: UsersCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		{{Key: "$unwind", Value: "$user"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "userId", Value: "$_id"},
			{Key: "user", Value: bson.D{
				{Key: "_id", Value: "$user._id"},
				{Key: "username", Value: "$user.username"},
				{Key: "profilePicture", Value: "$user.profilePicture"},
			}},
			{Key: "lastMessage", Value: 1},
			{Key: "lastMessageTime", Value: 1},
			{Key: "unreadCount", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "lastMessageTime", Value: -1}, {Key: "userId", Value: -1}}}},
	}
}
