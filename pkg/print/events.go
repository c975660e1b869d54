package print

import (
	"fmt"
	"io"
	"sync"

	"github.com/tc-functors/tc/pkg/deploy/event"
)

// eventsPrinter renders a human-readable line per event, grounded on
// the teacher's pkg/printers/events.Printer: group boundaries print
// once, entity outcomes print inline as they resolve, and a trailing
// error prints last.
type eventsPrinter struct {
	w   io.Writer
	mu  sync.Mutex
	err error
}

func (p *eventsPrinter) Print(ch <-chan event.Event) error {
	for ev := range ch {
		p.render(ev)
	}
	return p.err
}

func (p *eventsPrinter) render(ev event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case event.InitType:
		for _, g := range ev.InitEvent.ActionGroups {
			fmt.Fprintf(p.w, "plan: %s (%s) -> %v\n", g.Name, g.Action, g.Entities)
		}
	case event.ActionGroupType:
		g := ev.ActionGroupEvent
		switch g.Type {
		case event.Started:
			fmt.Fprintf(p.w, "%s %s: started\n", g.Action, g.GroupName)
		case event.Finished:
			fmt.Fprintf(p.w, "%s %s: finished\n", g.Action, g.GroupName)
		}
	case event.ApplyType:
		a := ev.ApplyEvent
		if a.Error != nil {
			fmt.Fprintf(p.w, "%s: failed: %v\n", a.Entity, a.Error)
			break
		}
		fmt.Fprintf(p.w, "%s: %s\n", a.Entity, a.Operation)
	case event.DeleteType:
		d := ev.DeleteEvent
		if d.Error != nil {
			fmt.Fprintf(p.w, "%s: failed: %v\n", d.Entity, d.Error)
			break
		}
		if d.Reason != "" {
			fmt.Fprintf(p.w, "%s: %s (%s)\n", d.Entity, d.Operation, d.Reason)
			break
		}
		fmt.Fprintf(p.w, "%s: %s\n", d.Entity, d.Operation)
	case event.StatusType:
		s := ev.StatusEvent
		if s.Error != nil {
			fmt.Fprintf(p.w, "%s: status error: %v\n", s.Entity, s.Error)
			break
		}
		fmt.Fprintf(p.w, "%s: %s\n", s.Entity, s.Status)
	case event.ErrorType:
		p.err = ev.ErrorEvent.Err
		fmt.Fprintf(p.w, "error: %v\n", p.err)
	}
}
