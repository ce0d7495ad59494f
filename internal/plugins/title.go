package plugins

import (
	"context"

	"github.com/dshills/rover/internal/event"
	"github.com/dshills/rover/internal/plugin"
)

type title struct {
	host     Host
	bindings bindings
}

func newTitle(host Host) *title {
	return &title{host: host}
}

func (p *title) descriptor() *plugin.Descriptor {
	return &plugin.Descriptor{
		Name:        "title",
		Version:     "1.0.0",
		Description: "Shows the current directory in the terminal title",
		Implements:  []string{FeatureTitle},
		Activate:    p.activate,
		Deactivate:  p.deactivate,
	}
}

func (p *title) activate(context.Context) error {
	p.bindings.bus = p.host.Bus()
	if err := p.bindings.addFunc(event.SignalCd, func(sig *event.Signal) {
		if p.host.Settings().UpdateTitle {
			p.host.SetTitle(titleFor(sig.String("new")))
		}
	}, event.DefaultPriority); err != nil {
		return err
	}
	return p.bindings.addFunc(event.SignalSettingChanged, func(sig *event.Signal) {
		if sig.String("key") == "update_title" && sig.Bool("value") {
			p.host.SetTitle(titleFor(p.host.Cwd()))
		}
	}, event.DefaultPriority)
}

func (p *title) deactivate(context.Context) error {
	p.bindings.clear()
	return nil
}

func titleFor(path string) string {
	return "rover: " + path
}
