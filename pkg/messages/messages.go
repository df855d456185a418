package messages

// ChatMessage is one inbound chat line, normalized away from the transport
// that delivered it.
type ChatMessage struct {
	// Username is the sender's login name, used as the account key.
	Username string
	// DisplayName is the sender's preferred capitalization, for chat output.
	DisplayName string
	Text        string
	Moderator   bool
	Broadcaster bool
}

// IsPrivileged reports whether the sender may run moderator commands.
func (m ChatMessage) IsPrivileged() bool {
	return m.Moderator || m.Broadcaster
}
