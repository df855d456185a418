package bot

import (
	"regexp"
	"strings"
)

// RestreamBotName is the login of the Restream bridge bot, which relays
// messages from other platforms into the chat.
const RestreamBotName = "restreambot"

var restreamPattern = regexp.MustCompile(`^\[[^:\]]+:([^\]]+)\]\s*(.*)$`)

// ParseRestreamMessage extracts the original sender and text from a message
// relayed by the Restream bridge bot ("[YouTube: Some User] hello"). Spaces
// in the username become underscores so it can key an account.
func ParseRestreamMessage(text string) (username string, message string, ok bool) {
	m := restreamPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	username = strings.ReplaceAll(strings.TrimSpace(m[1]), " ", "_")
	return strings.ToLower(username), m[2], true
}

// ParseUsername strips the @ mention marker from a username argument.
func ParseUsername(username string) string {
	return strings.TrimPrefix(username, "@")
}
