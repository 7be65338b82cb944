package protocol

import "time"

// Author is the embedded user reference carried on posts and comments.
type Author struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// Comment is scoped to its parent post; the id is unique within that post.
type Comment struct {
	ID        string    `json:"_id"`
	User      Author    `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post is the full wire record, delivered both by the REST collection
// endpoint and by newPost broadcasts. Likes holds user ids, not counts.
type Post struct {
	ID        string    `json:"_id"`
	Platform  string    `json:"platform"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Shares    int       `json:"shares"`
	CreatedAt time.Time `json:"createdAt"`
}

// JOIN (client -> server): subscribe to one platform room.
type JoinMsg struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// newPost (server -> client): full post broadcast on creation.
type NewPostMsg struct {
	Type string `json:"type"`
	Post Post   `json:"post"`
}

// postLiked (server -> client): the complete authoritative liker set.
type PostLikedMsg struct {
	Type   string   `json:"type"`
	PostID string   `json:"postId"`
	Likes  []string `json:"likes"`
}

// newComment (server -> client)
type NewCommentMsg struct {
	Type    string  `json:"type"`
	PostID  string  `json:"postId"`
	Comment Comment `json:"comment"`
}

// postShared (server -> client)
type PostSharedMsg struct {
	Type   string `json:"type"`
	PostID string `json:"postId"`
	Shares int    `json:"shares"`
}
