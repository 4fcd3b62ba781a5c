package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AuthorID   string             `bson:"authorId"      json:"authorId"`
	AuthorName string             `bson:"authorName"    json:"authorName"`
	Town       string             `bson:"town"          json:"town"    validate:"required"`
	Content    string             `bson:"content"       json:"content" validate:"required,max=5000"`
	ImageURL   string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	LikedBy    []string           `bson:"likedBy"       json:"likedBy"`
	LikeCount  int                `bson:"likeCount"     json:"likeCount"`
	CreatedAt  time.Time          `bson:"createdAt"     json:"createdAt"`
}

// Comment belongs to a post; ParentID is set for replies to another comment.
type Comment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID     string             `bson:"postId"        json:"postId"   validate:"required"`
	ParentID   string             `bson:"parentId,omitempty" json:"parentId,omitempty"`
	AuthorID   string             `bson:"authorId"      json:"authorId"`
	AuthorName string             `bson:"authorName"    json:"authorName"`
	Content    string             `bson:"content"       json:"content"  validate:"required,max=2000"`
	LikedBy    []string           `bson:"likedBy"       json:"likedBy"`
	LikeCount  int                `bson:"likeCount"     json:"likeCount"`
	CreatedAt  time.Time          `bson:"createdAt"     json:"createdAt"`
}
