package application

import "context"

// Broadcaster pushes fire-and-forget events to interested real-time
// listeners. No delivery guarantee is expected.
type Broadcaster interface {
	Publish(event string, payload any)
}

// NotificationChannel attempts outbound delivery on behalf of an owner and
// exposes the set of owners with a currently live outbound session. Send
// returns an external message handle on success.
type NotificationChannel interface {
	Send(ctx context.Context, ownerID, destination, text string) (string, error)
	LiveOwnerIDs() []string
}

// TemplateResolver substitutes conversation placeholders into a template.
type TemplateResolver interface {
	Render(ctx context.Context, conversationID, template string) (string, error)
}
