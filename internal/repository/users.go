package repository

import (
	"context"
	"regexp"
	"time"

	"github.com/AnshRaj112/pixora-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var publicProfileProjection = bson.M{"_id": 1, "username": 1, "profilePicture": 1, "bio": 1}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(UsersCollection)}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.CreatedAt, u.UpdatedAt = now, now
	u.Followers = idsOrEmpty(u.Followers)
	u.Following = idsOrEmpty(u.Following)
	u.Posts = idsOrEmpty(u.Posts)
	u.SavedPosts = idsOrEmpty(u.SavedPosts)

	_, err := r.col.InsertOne(ctx, u)
	return translate(err)
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByResetOTP returns the user whose reset code matches and is still valid at now.
func (r *UserRepository) FindByResetOTP(ctx context.Context, email, otp string, now time.Time) (*models.User, error) {
	return r.findOne(ctx, bson.M{
		"email":                   email,
		"resetPasswordOTP":        otp,
		"resetPasswordOTPExpires": bson.M{"$gt": now},
	})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOTP stores a verification code; an empty code clears it.
func (r *UserRepository) SetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return r.setOrClear(ctx, id, "otp", "otpExpires", otp, expires)
}

// SetResetOTP stores a password reset code; an empty code clears it.
func (r *UserRepository) SetResetOTP(ctx context.Context, id primitive.ObjectID, otp string, expires time.Time) error {
	return r.setOrClear(ctx, id, "resetPasswordOTP", "resetPasswordOTPExpires", otp, expires)
}

func (r *UserRepository) setOrClear(ctx context.Context, id primitive.ObjectID, codeField, expiresField, code string, expires time.Time) error {
	var update bson.M
	if code == "" {
		update = bson.M{
			"$unset": bson.M{codeField: "", expiresField: ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
	} else {
		update = bson.M{"$set": bson.M{codeField: code, expiresField: expires, "updatedAt": time.Now().UTC()}}
	}
	return r.updateOne(ctx, id, update)
}

func (r *UserRepository) MarkVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"isVerified": true, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"otp": "", "otpExpires": ""},
	})
}

// UpdatePassword replaces the hash and consumes any pending reset code.
func (r *UserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.updateOne(ctx, id, bson.M{
		"$set":   bson.M{"password": hash, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"resetPasswordOTP": "", "resetPasswordOTPExpires": ""},
	})
}

// UpdateProfile sets the non-nil fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, bio, picture *string) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if bio != nil {
		set["bio"] = *bio
	}
	if picture != nil {
		set["profilePicture"] = *picture
	}
	return r.updateOne(ctx, id, bson.M{"$set": set})
}

func (r *UserRepository) AddPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$push": bson.M{"posts": postID}})
}

func (r *UserRepository) RemovePost(ctx context.Context, userID, postID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$pull": bson.M{"posts": postID}})
}

func (r *UserRepository) AddSavedPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$addToSet": bson.M{"savedPosts": postID}})
}

func (r *UserRepository) RemoveSavedPost(ctx context.Context, userID, postID primitive.ObjectID) error {
	return r.updateOne(ctx, userID, bson.M{"$pull": bson.M{"savedPosts": postID}})
}

// RemoveSavedPostEverywhere pulls postID out of every user's saved posts.
func (r *UserRepository) RemoveSavedPostEverywhere(ctx context.Context, postID primitive.ObjectID) (int64, error) {
	res, err := r.col.UpdateMany(ctx,
		bson.M{"savedPosts": postID},
		bson.M{"$pull": bson.M{"savedPosts": postID}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *UserRepository) Follow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if err := r.updateOne(ctx, followerID, bson.M{"$addToSet": bson.M{"following": targetID}}); err != nil {
		return err
	}
	return r.updateOne(ctx, targetID, bson.M{"$addToSet": bson.M{"followers": followerID}})
}

func (r *UserRepository) Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	if err := r.updateOne(ctx, followerID, bson.M{"$pull": bson.M{"following": targetID}}); err != nil {
		return err
	}
	return r.updateOne(ctx, targetID, bson.M{"$pull": bson.M{"followers": followerID}})
}

func (r *UserRepository) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Profiles resolves public snapshots for ids. Unknown ids are absent from the map.
func (r *UserRepository) Profiles(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.PublicProfile, error) {
	out := make(map[primitive.ObjectID]models.PublicProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := r.col.Find(ctx, inIDs(ids), options.Find().SetProjection(publicProfileProjection))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.PublicProfile
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, cur.Err()
}

// Search matches usernames starting with query, case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string, exclude primitive.ObjectID, limit int64) ([]models.PublicProfile, error) {
	filter := bson.M{
		"username": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(query), Options: "i"},
		"_id":      bson.M{"$ne": exclude},
	}
	opts := options.Find().
		SetProjection(publicProfileProjection).
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(limit)

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	profiles := []models.PublicProfile{}
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
