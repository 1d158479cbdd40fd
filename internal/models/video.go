package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is a published video (MongoDB)
type Video struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	Artist        string             `json:"artist,omitempty" bson:"artist,omitempty"`
	Type          string             `json:"type,omitempty" bson:"type,omitempty"` // music, podcast, short
	LikesCount    int64              `json:"likes_count" bson:"likes_count"`
	DislikesCount int64              `json:"dislikes_count" bson:"dislikes_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

func (v Video) EntityKey() string { return v.ID.Hex() }

// Memory is a short text memory shared by a user (MongoDB)
type Memory struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Content   string             `json:"content" bson:"content"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

func (m Memory) EntityKey() string { return m.ID.Hex() }

// Playlist is a user curated list of videos (MongoDB)
type Playlist struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

func (p Playlist) EntityKey() string { return p.ID.Hex() }

// Podcast is a podcast episode (MongoDB)
type Podcast struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Title         string             `json:"title" bson:"title"`
	HostName      string             `json:"host_name,omitempty" bson:"host_name,omitempty"`
	GuestName     string             `json:"guest_name,omitempty" bson:"guest_name,omitempty"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	LikesCount    int64              `json:"likes_count" bson:"likes_count"`
	DislikesCount int64              `json:"dislikes_count" bson:"dislikes_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

func (p Podcast) EntityKey() string { return p.ID.Hex() }
