package entity

import "time"

type User struct {
	ID          string    `json:"id" firestore:"id"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"name"`
	Description string    `json:"description,omitempty" firestore:"description,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty" firestore:"profileImageUrl,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

// Participant is the immutable profile snapshot the directory hands out.
// Entries are refreshed wholesale, never patched field by field.
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
