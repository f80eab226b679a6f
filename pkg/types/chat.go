package types

import "time"

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

type ChatMessage struct {
	ID              string    `db:"id" json:"id"`
	SenderID        string    `db:"sender_id" json:"senderId"`
	Role            ChatRole  `db:"role" json:"role"`
	Message         string    `db:"message" json:"message"`
	ConsiderContext bool      `db:"consider_context" json:"considerContext"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
