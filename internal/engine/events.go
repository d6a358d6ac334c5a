package engine

// Typed platform events. The gateway adapter translates its own event
// shapes into these so the engine stays decoupled from any specific chat
// platform, and the capability flag is computed by the adapter at event
// time (injected capability predicate rather than a live permission
// lookup inside the engine).

// MemberJoined fires when an identity enters the community.
type MemberJoined struct {
	MemberID string
	Username string
}

// MemberLeft fires when an identity departs.
type MemberLeft struct {
	MemberID string
	Username string
}

// Message fires for every message the platform delivers.
type Message struct {
	MessageID         string
	ChannelID         string
	AuthorID          string
	AuthorUsername    string
	Content           string
	AuthorIsAutomated bool
	AuthorCanModerate bool
}

// ReactionAdded fires when a member reacts to a message.
type ReactionAdded struct {
	ChannelID         string
	MemberID          string
	Emoji             string
	MemberIsAutomated bool
}
