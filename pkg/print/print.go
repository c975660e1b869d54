// Package print renders a deploy run's event.Event stream for a human
// or for a downstream tool, mirrored after the teacher's
// pkg/printers/printer.Printer interface and its per-format
// implementations (pkg/printers/events, pkg/printers/json), but scoped
// to tc's own event.Event instead of a ResourceGroup's channel of
// Events backed by Kubernetes status.
package print

import (
	"io"

	"github.com/tc-functors/tc/pkg/deploy/event"
)

// Printer drains ch, rendering each event as it arrives, and returns
// once ch closes. The returned error is the run's own failure (the
// last ErrorEvent seen on ch), not a rendering failure; a rendering
// failure is ignored (not logged) so a broken terminal never
// masks the underlying deploy result.
type Printer interface {
	Print(ch <-chan event.Event) error
}

// Format names one of the printers New can build, matching the
// `--output` flag values `tc apply`/`tc destroy` accept.
type Format string

const (
	FormatEvents Format = "events"
	FormatJSON   Format = "json"
)

// New builds the Printer for format, writing to w. An unrecognized
// format falls back to FormatEvents rather than erroring, since a
// malformed --output value shouldn't abort a deploy already under way.
func New(format Format, w io.Writer) Printer {
	switch format {
	case FormatJSON:
		return &jsonPrinter{w: w}
	default:
		return &eventsPrinter{w: w}
	}
}
