package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

const defaultTimeout = 10 * time.Second

// Shoutrrr sends reminders to chat and push services via shoutrrr URLs
type Shoutrrr struct {
	sender *router.ServiceRouter
}

// NewShoutrrr builds a single sender for all urls
func NewShoutrrr(urls []string, timeout time.Duration) (*Shoutrrr, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one notification URL is required")
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, fmt.Errorf("invalid notification URL: %w", err)
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &Shoutrrr{sender: sender}, nil
}

// Notify sends message to every configured service
func (s *Shoutrrr) Notify(_ context.Context, title, message string) error {
	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}
	var failed []error
	for _, err := range s.sender.Send(message, &params) {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return errors.Join(failed...)
}
