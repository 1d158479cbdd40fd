package models

import "gorm.io/gorm"

// Comment represents a comment on a post (PostgreSQL)
type Comment struct {
	gorm.Model
	PostID        string `json:"post_id" gorm:"index"` // MongoDB ObjectID of the post, as hex
	UserID        uint   `json:"user_id" gorm:"index"`
	Content       string `json:"content"`
	LikesCount    int64  `json:"likes_count" gorm:"default:0"`
	DislikesCount int64  `json:"dislikes_count" gorm:"default:0"`
}
