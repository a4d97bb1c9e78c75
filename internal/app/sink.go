package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/squadboard/internal/banana"
	"github.com/five82/squadboard/internal/ui"
)

// sender is the part of tea.Program the stream sink uses.
type sender interface {
	Send(msg tea.Msg)
}

// programSink forwards stream output into the Bubble Tea update loop.
type programSink struct {
	program sender
}

func (s programSink) Status(connected bool) {
	s.program.Send(ui.ConnMsg{Connected: connected})
}

func (s programSink) Event(ev banana.Event) {
	s.program.Send(ui.EventMsg{Event: ev})
}

type connChange struct {
	connected bool
}

// chanSink forwards stream output onto the watch loop's inbox. Sends give
// up once ctx is done.
type chanSink struct {
	ctx   context.Context
	inbox chan<- any
}

func (s chanSink) Status(connected bool) {
	deliver(s.ctx, s.inbox, connChange{connected: connected})
}

func (s chanSink) Event(ev banana.Event) {
	deliver(s.ctx, s.inbox, ev)
}

func deliver(ctx context.Context, inbox chan<- any, msg any) {
	select {
	case inbox <- msg:
	case <-ctx.Done():
	}
}
