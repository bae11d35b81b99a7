package watch

import (
	"context"

	"github.com/Paintersrp/twohop/internal/panel"
)

type frame struct {
	gen   int
	panel panel.Panel
	err   error
}

// refresher runs panel builds in the background. Starting a build cancels the
// one still running, and only the frame of the latest build is current.
type refresher struct {
	parent context.Context
	build  func(ctx context.Context) (panel.Panel, error)
	frames chan frame
	cancel context.CancelFunc
	gen    int
}

func newRefresher(parent context.Context, build func(ctx context.Context) (panel.Panel, error)) *refresher {
	return &refresher{
		parent: parent,
		build:  build,
		frames: make(chan frame),
	}
}

func (r *refresher) trigger() {
	r.stop()

	ctx, cancel := context.WithCancel(r.parent)
	r.cancel = cancel
	r.gen++
	gen := r.gen

	go func() {
		p, err := r.build(ctx)
		select {
		case r.frames <- frame{gen: gen, panel: p, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (r *refresher) current(f frame) bool {
	return f.gen == r.gen
}

func (r *refresher) stop() {
	if r.cancel != nil {
		r.cancel()
	}
}
