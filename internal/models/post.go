package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a social media post stored in MongoDB
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID        string             `json:"user_id" bson:"user_id"`
	Content       string             `json:"content" bson:"content"`
	MediaType     string             `json:"media_type,omitempty" bson:"media_type,omitempty"`
	Hashtags      []string           `json:"hashtags,omitempty" bson:"hashtags,omitempty"`
	LikesCount    int64              `json:"likes_count" bson:"likes_count"`
	DislikesCount int64              `json:"dislikes_count" bson:"dislikes_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

func (p Post) EntityKey() string { return p.ID.Hex() }
