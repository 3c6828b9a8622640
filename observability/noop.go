package observability

import "context"

// NoOpObserver discards every event. Useful as a default when no
// observability sink is configured.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}
