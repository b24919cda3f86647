package presence

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster is the outbound status transport.
type Broadcaster interface {
	Connect() error
	Update(details, state string, start time.Time) error
	Clear() error
	Close()
}

// Client wraps a Broadcaster with the failure policy from the error
// design: any connection or update failure marks the transport down and
// suppresses further attempts until an explicit Reconnect. The poll loop
// never retries on its own.
type Client struct {
	mu sync.Mutex
	b  Broadcaster
	up bool

	log zerolog.Logger
}

// NewClient wraps b. The client starts disconnected; call Reconnect (or
// let the daemon do so at startup) to bring it up.
func NewClient(b Broadcaster, log zerolog.Logger) *Client {
	return &Client{b: b, log: log}
}

// Connected reports whether the transport is currently usable.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

// Reconnect tears down and re-establishes the connection.
func (c *Client) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.up {
		c.b.Close()
		c.up = false
	}
	if err := c.b.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("presence connect failed")
		return err
	}
	c.up = true
	c.log.Info().Msg("presence connected")
	return nil
}

// Publish sends one payload. While the transport is down this is a no-op.
func (c *Client) Publish(p Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.up {
		return
	}

	var err error
	if p.Clear {
		err = c.b.Clear()
	} else {
		err = c.b.Update(p.Details, p.State, p.Start)
	}
	if err != nil {
		c.up = false
		c.log.Warn().Err(err).Msg("presence update failed, suppressing until reconnect")
	}
}

// Close shuts the transport down.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.up {
		c.b.Close()
		c.up = false
	}
}
