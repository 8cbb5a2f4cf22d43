package popup

import (
	"context"

	"horse.fit/transpop/internal/broadcast"
	"horse.fit/transpop/internal/coordinator"
	"horse.fit/transpop/internal/translation"
)

// LocalBackend talks to a coordinator running in the same process.
type LocalBackend struct {
	coord *coordinator.Coordinator
	hub   *broadcast.Hub[coordinator.Event]
}

func NewLocalBackend(coord *coordinator.Coordinator, hub *broadcast.Hub[coordinator.Event]) *LocalBackend {
	return &LocalBackend{coord: coord, hub: hub}
}

func (b *LocalBackend) GetLatest(ctx context.Context) (*translation.Result, error) {
	reply, err := await(ctx, b.coord.Dispatch(ctx, coordinator.GetLatest{}))
	if err != nil {
		return nil, err
	}
	if !reply.OK {
		return nil, replyError(reply)
	}
	return reply.Result, nil
}

func (b *LocalBackend) Translate(ctx context.Context, text string, origin translation.Origin) (*translation.Result, error) {
	reply, err := await(ctx, b.coord.Dispatch(ctx, coordinator.TranslateRequest{Text: text, Origin: string(origin)}))
	if err != nil {
		return nil, err
	}
	if !reply.OK {
		return nil, replyError(reply)
	}
	return reply.Result, nil
}

func (b *LocalBackend) Subscribe(context.Context) (Subscription, error) {
	return b.hub.Subscribe(), nil
}

func await(ctx context.Context, replies <-chan coordinator.Reply) (coordinator.Reply, error) {
	select {
	case reply := <-replies:
		return reply, nil
	case <-ctx.Done():
		return coordinator.Reply{}, ctx.Err()
	}
}
