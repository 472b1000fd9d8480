package entity

import "time"

type Post struct {
	ID              string    `json:"id" firestore:"id"`
	AuthorID        string    `json:"author_id" firestore:"authorID"`
	AuthorName      string    `json:"author_name" firestore:"authorName"`
	AuthorAvatarURL string    `json:"author_avatar_url,omitempty" firestore:"authorImgURL,omitempty"`
	ImageURL        string    `json:"image_url" firestore:"imageURL"`
	Caption         string    `json:"caption" firestore:"caption"`
	LikedBy         []string  `json:"liked_by" firestore:"likes"`
	CreatedAt       time.Time `json:"created_at" firestore:"timestamp"`
}

func (p *Post) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
