package ic

import "github.com/tliron/commonlog"

var traceLog = commonlog.GetLogger("icache.ic.trace")

// transition records one state change of a feedback record for tracing.
type transition struct {
	kind   Kind
	slot   Slot
	from   State
	key    Key
	reason error
}

func (ic *IC) begin(key Key) transition {
	f := ic.record()
	return transition{kind: f.access.Kind, slot: ic.slot, from: f.state, key: key}
}

// end logs the transition when tracing is on. Unchanged states are only
// logged when a reason was given.
func (ic *IC) end(t transition) {
	if !ic.iso.cfg.Trace {
		return
	}
	to := ic.record().state
	if to == t.from && t.reason == nil {
		return
	}
	if t.reason != nil {
		traceLog.Infof("[%s in slot %d] (%c->%c) %s (%v)", t.kind, t.slot, t.from.Mark(), to.Mark(), t.key, t.reason)
		return
	}
	traceLog.Infof("[%s in slot %d] (%c->%c) %s", t.kind, t.slot, t.from.Mark(), to.Mark(), t.key)
}
