package focus

import (
	"github.com/bnema/swc/internal/event"
	"github.com/bnema/swc/internal/surface"
)

// Scheduler runs tasks on the next idle point of the event loop.
type Scheduler interface {
	AddIdle(fn func())
}

// Deferred coalesces focus requests into a single idle commit.
//
// Request records a target and schedules a commit unless one is already
// pending. The commit applies whatever target is current when it runs, so
// N requests before the loop goes idle produce one call with the last
// target. A target destroyed in the meantime resolves to nil.
type Deferred struct {
	sched   Scheduler
	apply   func(*surface.Surface)
	target  *surface.Surface
	sub     *event.Subscription[*surface.Surface]
	pending bool
	commits int
}

// NewDeferred creates a deferred committer calling apply.
func NewDeferred(sched Scheduler, apply func(*surface.Surface)) *Deferred {
	return &Deferred{sched: sched, apply: apply}
}

// Request sets the target of the next commit.
func (d *Deferred) Request(s *surface.Surface) {
	d.watch(s)
	if d.pending {
		return
	}
	d.pending = true
	d.sched.AddIdle(d.commit)
}

// Pending reports whether a commit is scheduled.
func (d *Deferred) Pending() bool {
	return d.pending
}

// Target returns the surface the pending commit would apply.
func (d *Deferred) Target() *surface.Surface {
	return d.target
}

// Commits returns how many commits ran.
func (d *Deferred) Commits() int {
	return d.commits
}

func (d *Deferred) watch(s *surface.Surface) {
	if s == d.target {
		return
	}
	d.sub.Remove()
	d.sub = nil
	d.target = nil
	if s == nil || s.Destroyed() {
		return
	}
	d.target = s
	d.sub = s.OnDestroy(func(*surface.Surface) {
		d.target = nil
		d.sub = nil
	})
}

func (d *Deferred) commit() {
	if !d.pending {
		return
	}
	d.pending = false
	target := d.target
	d.watch(nil)
	d.commits++
	d.apply(target)
}

// Cancel drops a pending commit.
func (d *Deferred) Cancel() {
	d.pending = false
	d.watch(nil)
}
