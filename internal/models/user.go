package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is stored in the "users" collection. Credential and OTP fields are
// never serialized to JSON.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	Username       string `bson:"username" json:"username"`
	Email          string `bson:"email" json:"email"`
	Password       string `bson:"password" json:"-"`
	Bio            string `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfilePicture string `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`

	IsVerified              bool       `bson:"isVerified" json:"isVerified"`
	OTP                     string     `bson:"otp,omitempty" json:"-"`
	OTPExpires              *time.Time `bson:"otpExpires,omitempty" json:"-"`
	ResetPasswordOTP        string     `bson:"resetPasswordOTP,omitempty" json:"-"`
	ResetPasswordOTPExpires *time.Time `bson:"resetPasswordOTPExpires,omitempty" json:"-"`

	Followers  []primitive.ObjectID `bson:"followers" json:"followers"`
	Following  []primitive.ObjectID `bson:"following" json:"following"`
	Posts      []primitive.ObjectID `bson:"posts" json:"posts"`
	SavedPosts []primitive.ObjectID `bson:"savedPosts" json:"savedPosts"`
}

// PublicProfile is the snapshot of a user embedded in posts, comments,
// messages and conversation summaries.
type PublicProfile struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Username       string             `bson:"username" json:"username"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Bio            string             `bson:"bio,omitempty" json:"bio,omitempty"`
}

// Profile returns the public snapshot of u.
func (u *User) Profile() PublicProfile {
	return PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Bio:            u.Bio,
	}
}

// UserProfile is a user with its posts and saved posts resolved.
type UserProfile struct {
	*User
	Posts      []Post `json:"posts"`
	SavedPosts []Post `json:"savedPosts"`
}

// HasSaved reports whether postID is in the user's saved posts.
func (u *User) HasSaved(postID primitive.ObjectID) bool {
	return containsID(u.SavedPosts, postID)
}

// IsFollowing reports whether the user follows otherID.
func (u *User) IsFollowing(otherID primitive.ObjectID) bool {
	return containsID(u.Following, otherID)
}
