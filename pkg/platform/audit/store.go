package audit

import "context"

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Fanout appends every event to each store in order and stops at the first
// failure.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	for _, s := range f {
		if err := s.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
