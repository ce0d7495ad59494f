package plugins

import (
	"context"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/plugin"
)

// IndicatorThrobber is the status-line segment the throbber owns.
const IndicatorThrobber = "throbber"

type throbber struct {
	host     Host
	bindings bindings
}

func newThrobber(host Host) *throbber {
	return &throbber{host: host}
}

func (p *throbber) descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:        "throbber",
		Version:     "1.0.0",
		Description: "Shows a spinner while directories load",
		Requires:    []string{FeatureDataLoader},
		Activate:    p.activate,
		Deactivate:  p.deactivate,
	}
}

func (p *throbber) activate(context.Context) error {
	p.bindings.bus = p.host.Bus()
	return p.bindings.addFunc(event.SignalLoopEnd, func(*event.Signal) { p.update() }, event.DefaultPriority)
}

func (p *throbber) deactivate(context.Context) error {
	p.bindings.clear()
	p.host.SetIndicator(IndicatorThrobber, "")
	return nil
}

func (p *throbber) update() {
	l := p.host.Loader()
	if l.HasWork() && !l.Paused() {
		p.host.SetIndicator(IndicatorThrobber, l.Status())
		return
	}
	p.host.SetIndicator(IndicatorThrobber, "")
}
