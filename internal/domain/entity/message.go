package entity

import "time"

type Message struct {
	ID          string    `json:"id" firestore:"id"`
	ChatID      string    `json:"chat_id" firestore:"chatID"`
	SenderID    string    `json:"sender_id" firestore:"senderID"`
	RecipientID string    `json:"recipient_id" firestore:"recipientID"`
	Text        string    `json:"text" firestore:"text"`
	Type        string    `json:"type" firestore:"messageType"` // "text"
	CreatedAt   time.Time `json:"created_at" firestore:"timestamp"`
}
