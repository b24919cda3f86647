package presence

import (
	"time"

	richgo "github.com/hugolgst/rich-go/client"
)

// Discord broadcasts over the local Discord IPC socket.
type Discord struct {
	clientID string
	loggedIn bool
}

// NewDiscord returns a Discord broadcaster for the given application id.
func NewDiscord(clientID string) *Discord {
	return &Discord{clientID: clientID}
}

func (d *Discord) Connect() error {
	if err := richgo.Login(d.clientID); err != nil {
		return err
	}
	d.loggedIn = true
	return nil
}

func (d *Discord) Update(details, state string, start time.Time) error {
	if !d.loggedIn {
		if err := d.Connect(); err != nil {
			return err
		}
	}
	return richgo.SetActivity(richgo.Activity{
		Details:    details,
		State:      state,
		Timestamps: &richgo.Timestamps{Start: &start},
	})
}

// Clear removes the status. The IPC protocol has no dedicated clear call,
// so this logs out; the next Update logs back in.
func (d *Discord) Clear() error {
	if d.loggedIn {
		richgo.Logout()
		d.loggedIn = false
	}
	return nil
}

func (d *Discord) Close() {
	if d.loggedIn {
		richgo.Logout()
		d.loggedIn = false
	}
}
