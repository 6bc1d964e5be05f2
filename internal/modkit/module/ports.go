package module

import "reflect"

// PortSet is what a module returns from Ports. Each service module in this
// repo returns its own Ports struct (fetch exposes a Collector, embed an
// Embedder, labelcache a Cache, analyze an Analyzer and its Labels)
type PortSet = any

// PortsOf finds T in m.Ports(). T may be the Ports struct itself, or an
// interface satisfied by one of its exported fields, so a caller can ask for
// fetchdom.CollectorPort without naming the fetch module's Ports type.
// ok is false when nothing matches
func PortsOf[T any](m Module) (t T, ok bool) {
	p := m.Ports()
	if p == nil {
		return t, false
	}
	if v, ok2 := p.(T); ok2 {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Struct {
		return t, false
	}
	for i := range rv.NumField() {
		f := rv.Field(i)
		if !f.CanInterface() || (f.Kind() == reflect.Interface && f.IsNil()) {
			continue
		}
		if v, ok2 := f.Interface().(T); ok2 {
			return v, true
		}
	}
	return t, false
}

// MustPortsOf is PortsOf for wiring code, where a missing port is a build
// mistake. It panics naming the module
func MustPortsOf[T any](m Module) T {
	if v, ok := PortsOf[T](m); ok {
		return v
	}
	var zero T
	panic("module: " + m.Name() + " has no port of type " + reflect.TypeOf(&zero).Elem().String())
}
