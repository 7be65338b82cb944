package protocol

import "encoding/json"

const Version = "1.0"

// Message types on the push channel.
const (
	TypeJoin       = "JOIN"
	TypeNewPost    = "newPost"
	TypePostLiked  = "postLiked"
	TypeNewComment = "newComment"
	TypePostShared = "postShared"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type string `json:"type"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
