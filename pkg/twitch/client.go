package twitch

import (
	irc "github.com/gempir/go-twitch-irc/v4"

	"github.com/bkimball/guessbot/pkg/log"
	"github.com/bkimball/guessbot/pkg/messages"
	"github.com/bkimball/guessbot/pkg/queue"
)

// Client connects to one Twitch channel and bridges inbound chat into the
// message queue. It implements bot.Sender for outbound messages.
type Client struct {
	irc     *irc.Client
	channel string
}

// NewClientOptions contains options for creating a new Client.
type NewClientOptions struct {
	Username     string
	Token        string
	Channel      string
	MessageQueue queue.Queue
}

func NewClient(opts NewClientOptions) *Client {
	client := irc.NewClient(opts.Username, opts.Token)

	client.OnPrivateMessage(func(message irc.PrivateMessage) {
		msg := &messages.ChatMessage{
			Username:    message.User.Name,
			DisplayName: message.User.DisplayName,
			Text:        message.Message,
			Moderator:   message.User.Badges["moderator"] > 0,
			Broadcaster: message.User.Badges["broadcaster"] > 0,
		}
		if err := opts.MessageQueue.Enqueue(msg); err != nil {
			log.Warn("Dropping chat message from %s: %v", msg.Username, err)
		}
	})

	client.Join(opts.Channel)

	return &Client{
		irc:     client,
		channel: opts.Channel,
	}
}

// Connect runs the IRC connection. It blocks until Disconnect is called or
// the connection fails.
func (c *Client) Connect() error {
	return c.irc.Connect()
}

func (c *Client) Disconnect() error {
	return c.irc.Disconnect()
}

// Say sends a message to the channel.
func (c *Client) Say(text string) {
	c.irc.Say(c.channel, text)
}
