package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxCaptionLength = 2200

// Image points at an object held by the image storage provider.
type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"publicId" json:"publicId"`
}

type Post struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Caption   string               `bson:"caption" json:"caption"`
	Image     Image                `bson:"image" json:"image"`
	User      primitive.ObjectID   `bson:"user" json:"user"`
	Likes     []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments  []primitive.ObjectID `bson:"comments" json:"comments"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// PostView is a post with its owner and comments populated.
type PostView struct {
	ID        primitive.ObjectID   `json:"_id"`
	Caption   string               `json:"caption"`
	Image     Image                `json:"image"`
	User      *PublicProfile       `json:"user"`
	Likes     []primitive.ObjectID `json:"likes"`
	Comments  []CommentView        `json:"comments"`
	CreatedAt time.Time            `json:"createdAt"`
}

// HasLike reports whether userID is in the post's likes.
func (p *Post) HasLike(userID primitive.ObjectID) bool {
	return containsID(p.Likes, userID)
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
