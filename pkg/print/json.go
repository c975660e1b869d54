package print

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/tc-functors/tc/pkg/deploy/event"
)

// jsonPrinter emits one JSON object per line, grounded on the
// teacher's pkg/printers/json.Printer, for callers that pipe tc's
// output into another tool instead of a terminal.
type jsonPrinter struct {
	w   io.Writer
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

type jsonRecord struct {
	Type    string `json:"type"`
	Group   string `json:"group,omitempty"`
	Action  string `json:"action,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Op      string `json:"op,omitempty"`
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
	Entities []string `json:"entities,omitempty"`
}

func (p *jsonPrinter) Print(ch <-chan event.Event) error {
	p.enc = json.NewEncoder(p.w)
	for ev := range ch {
		p.render(ev)
	}
	return p.err
}

func (p *jsonPrinter) render(ev event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev.Type {
	case event.InitType:
		for _, g := range ev.InitEvent.ActionGroups {
			p.enc.Encode(jsonRecord{Type: "plan", Group: g.Name, Action: g.Action.String(), Entities: g.Entities})
		}
	case event.ActionGroupType:
		g := ev.ActionGroupEvent
		phase := "started"
		if g.Type == event.Finished {
			phase = "finished"
		}
		p.enc.Encode(jsonRecord{Type: "group", Group: g.GroupName, Action: g.Action.String(), Phase: phase})
	case event.ApplyType:
		a := ev.ApplyEvent
		rec := jsonRecord{Type: "apply", Group: a.GroupName, Entity: a.Entity, Op: a.Operation.String()}
		if a.Error != nil {
			rec.Error = a.Error.Error()
		}
		p.enc.Encode(rec)
	case event.DeleteType:
		d := ev.DeleteEvent
		rec := jsonRecord{Type: "delete", Group: d.GroupName, Entity: d.Entity, Op: d.Operation.String(), Reason: d.Reason}
		if d.Error != nil {
			rec.Error = d.Error.Error()
		}
		p.enc.Encode(rec)
	case event.StatusType:
		s := ev.StatusEvent
		rec := jsonRecord{Type: "status", Entity: s.Entity, Status: s.Status}
		if s.Error != nil {
			rec.Error = s.Error.Error()
		}
		p.enc.Encode(rec)
	case event.ErrorType:
		p.err = ev.ErrorEvent.Err
		p.enc.Encode(jsonRecord{Type: "error", Error: p.err.Error()})
	}
}
