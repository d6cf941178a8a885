package diagram

import "github.com/matzehuels/flowchart/pkg/surface"

// Event is the pointer event passed to listeners.
type Event = surface.Event

// DragListener receives the phases of a node drag. Nil fields are skipped.
type DragListener struct {
	OnStart func(ev Event, n *Node)
	OnMove  func(ev Event, n *Node, dx, dy float64)
	OnEnd   func(ev Event, n *Node)
}

// HoverListener receives pointer enter and leave on a node. Nil fields are
// skipped.
type HoverListener struct {
	In  func(ev Event, n *Node)
	Out func(ev Event, n *Node)
}

type listeners struct {
	click    []func(Event, *Node)
	dblclick []func(Event, *Node)
	drag     []DragListener
	hover    []HoverListener
}

// Click registers fn for clicks on any node. Listeners run in registration
// order. A nil fn is ignored.
func (d *Diagram) Click(fn func(ev Event, n *Node)) *Diagram {
	if fn != nil {
		d.listeners.click = append(d.listeners.click, fn)
	}
	return d
}

// DblClick registers fn for double clicks on any node.
func (d *Diagram) DblClick(fn func(ev Event, n *Node)) *Diagram {
	if fn != nil {
		d.listeners.dblclick = append(d.listeners.dblclick, fn)
	}
	return d
}

// Draggable registers a drag listener.
func (d *Diagram) Draggable(l DragListener) *Diagram {
	if l.OnStart != nil || l.OnMove != nil || l.OnEnd != nil {
		d.listeners.drag = append(d.listeners.drag, l)
	}
	return d
}

// DragMove registers fn as the move phase of a drag listener.
func (d *Diagram) DragMove(fn func(ev Event, n *Node, dx, dy float64)) *Diagram {
	return d.Draggable(DragListener{OnMove: fn})
}

// Hover registers a hover listener.
func (d *Diagram) Hover(l HoverListener) *Diagram {
	if l.In != nil || l.Out != nil {
		d.listeners.hover = append(d.listeners.hover, l)
	}
	return d
}

// HoverIn registers fn as the enter phase of a hover listener.
func (d *Diagram) HoverIn(fn func(ev Event, n *Node)) *Diagram {
	return d.Hover(HoverListener{In: fn})
}

// bind attaches one multiplexing handler per enabled gesture to n. The
// handlers read the listener lists at event time, so listeners registered
// after New still fire.
func (d *Diagram) bind(n *Node) {
	if d.opts.Clickable {
		n.Click(func(ev Event) {
			for _, fn := range d.listeners.click {
				fn(ev, n)
			}
		})
	}
	if d.opts.DblClickable {
		n.DblClick(func(ev Event) {
			for _, fn := range d.listeners.dblclick {
				fn(ev, n)
			}
		})
	}
	if d.opts.Draggable {
		n.Draggable(surface.DragHandlers{
			Start: func(ev Event) {
				for _, l := range d.listeners.drag {
					if l.OnStart != nil {
						l.OnStart(ev, n)
					}
				}
			},
			Move: func(ev Event, dx, dy float64) {
				for _, c := range d.touching[n.ID()] {
					c.Refresh()
				}
				for _, l := range d.listeners.drag {
					if l.OnMove != nil {
						l.OnMove(ev, n, dx, dy)
					}
				}
			},
			End: func(ev Event) {
				for _, l := range d.listeners.drag {
					if l.OnEnd != nil {
						l.OnEnd(ev, n)
					}
				}
			},
		})
	}
	if d.opts.Hoverable {
		n.Hover(surface.HoverHandlers{
			In: func(ev Event) {
				for _, l := range d.listeners.hover {
					if l.In != nil {
						l.In(ev, n)
					}
				}
			},
			Out: func(ev Event) {
				for _, l := range d.listeners.hover {
					if l.Out != nil {
						l.Out(ev, n)
					}
				}
			},
		})
	}
}
