package domain

// Role identifies the author of an assistant message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one entry of the assistant transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}
