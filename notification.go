package webpush

import (
	"context"
	"encoding/json"
	"fmt"
)

// Notification is the JSON payload handed to the service worker's push
// event. Field names follow the Notification constructor options.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Notify serializes n and delivers it to the Subscription.
func (s *Sender) Notify(ctx context.Context, n *Notification, sub *Subscription) error {
	message, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("webpush: encoding notification: %w", err)
	}
	return s.Deliver(ctx, message, sub)
}
