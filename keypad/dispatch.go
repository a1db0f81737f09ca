package keypad

// Route tells which non-wildcard handler, if any, received an event.
type Route int

const (
	// RouteDropped means neither a specific nor a default handler was registered.
	RouteDropped Route = iota
	// RouteSpecific means the handler registered for the exact combination ran.
	RouteSpecific
	// RouteDefault means the default handler ran.
	RouteDefault
)

func (r Route) String() string {
	switch r {
	case RouteSpecific:
		return "specific"
	case RouteDefault:
		return "default"
	default:
		return "dropped"
	}
}

// Dispatch delivers ev: the wildcard handler first, then the handler for
// ev.String(), or the default handler when none matched. Each handler runs at
// most once. wildcard reports whether a wildcard handler ran.
func (r *Registry) Dispatch(ev KeyEvent) (route Route, wildcard bool) {
	if h, ok := r.Lookup(Wildcard); ok {
		h(ev)
		wildcard = true
	}
	if h, ok := r.Lookup(ev.String()); ok {
		h(ev)
		return RouteSpecific, wildcard
	}
	if h, ok := r.Lookup(Default); ok {
		h(ev)
		return RouteDefault, wildcard
	}
	return RouteDropped, wildcard
}
