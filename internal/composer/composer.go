// Package composer tracks the per-thread reply input state: idle, or
// composing a reply to one specific comment.
package composer

// State of the reply composer.
type State int

const (
	Idle State = iota
	ComposingReply
)

func (s State) String() string {
	if s == ComposingReply {
		return "composingReply"
	}
	return "idle"
}

// Composer is the input-box state machine. Selecting "Reply" on a comment
// moves it to ComposingReply with the target comment's id and pre-fills the
// draft with an @mention; cancel or a successful submit returns it to Idle
// and clears the draft.
type Composer struct {
	state    State
	targetID string
	draft    string
}

func New() *Composer {
	return &Composer{state: Idle}
}

func (c *Composer) State() State {
	return c.state
}

// TargetCommentID returns the comment being replied to, empty when idle.
func (c *Composer) TargetCommentID() string {
	return c.targetID
}

func (c *Composer) Draft() string {
	return c.draft
}

// SetDraft replaces the draft text without changing state.
func (c *Composer) SetDraft(text string) {
	c.draft = text
}

// BeginReply targets a comment and pre-fills the draft with "@<author> ".
// Selecting reply on another comment simply retargets the composer.
func (c *Composer) BeginReply(commentID, authorName string) {
	c.state = ComposingReply
	c.targetID = commentID
	c.draft = "@" + authorName + " "
}

// Cancel returns to Idle and clears the draft and target.
func (c *Composer) Cancel() {
	c.state = Idle
	c.targetID = ""
	c.draft = ""
}

// Submit hands the draft to send and resets to Idle when send succeeds.
// On failure the draft and state are preserved so the user can retry.
// A whitespace-only draft is a no-op: send is not called and state is kept.
func (c *Composer) Submit(send func(targetCommentID, text string) error) error {
	if isBlank(c.draft) {
		return nil
	}
	if err := send(c.targetID, c.draft); err != nil {
		return err
	}
	c.Cancel()
	return nil
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
