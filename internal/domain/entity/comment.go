package entity

import "time"

type Comment struct {
	ID              string    `json:"id" firestore:"id"`
	PostID          string    `json:"post_id" firestore:"postID"`
	AuthorID        string    `json:"author_id" firestore:"userID"`
	AuthorName      string    `json:"author_name,omitempty" firestore:"authorName,omitempty"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty" firestore:"authorImgURL,omitempty"`
	Text            string    `json:"text" firestore:"text"`
	CreatedAt       time.Time `json:"created_at" firestore:"timestamp"`
}
