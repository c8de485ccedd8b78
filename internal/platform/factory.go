package platform

import (
	"context"

	"github.com/aretw0/notepad/pkg/core"
)

// New opens the store at uri and wraps it in a core.Service.
//
//	svc, err := platform.New(ctx, "./notes", platform.WithAdapter("sqlite"))
func New(ctx context.Context, uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(ctx, uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	bufferSize, _ := o.config["event_buffer"].(int)

	return core.NewService(repo,
		core.WithServiceLogger(o.logger),
		core.WithEventBuffer(bufferSize),
	), nil
}
