package entity

import "time"

type Chat struct {
	ID            string    `json:"id" firestore:"id"`
	Participants  []string  `json:"participants" firestore:"participants"`
	LastMessage   string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time `json:"last_message_at" firestore:"lastMessageTimestamp"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}

// OtherParticipant returns the first participant that is not userID.
// Chats always have at least two participants, so an empty result means
// the record is malformed.
func (c *Chat) OtherParticipant(userID string) string {
	for _, id := range c.Participants {
		if id != userID {
			return id
		}
	}
	return ""
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
