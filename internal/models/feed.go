package models

// CommentThread is a comment plus its replies in store-returned order.
type CommentThread struct {
	Comment *Comment `json:"comment"`
	Replies []*Reply `json:"replies"`
}

// FeedPost is the ephemeral, client-side aggregate: a post with its full
// comment/reply tree. It is rebuilt on every load and holds no authority;
// the document store remains the source of truth.
type FeedPost struct {
	Post     *Post            `json:"post"`
	Comments []*CommentThread `json:"comments"`
}

// Clone produces a deep copy so feed snapshots handed out of the engine can
// never alias the tree the feed actor keeps mutating.
func (fp *FeedPost) Clone() *FeedPost {
	post := *fp.Post
	out := &FeedPost{
		Post:     &post,
		Comments: make([]*CommentThread, 0, len(fp.Comments)),
	}
	for _, thread := range fp.Comments {
		comment := *thread.Comment
		copied := &CommentThread{
			Comment: &comment,
			Replies: make([]*Reply, 0, len(thread.Replies)),
		}
		for _, reply := range thread.Replies {
			r := *reply
			copied.Replies = append(copied.Replies, &r)
		}
		out.Comments = append(out.Comments, copied)
	}
	return out
}
