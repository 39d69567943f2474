package operation

import (
	"plcsim/internal/ident"
	"plcsim/internal/pointer"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// Instance is a function-block or function instance: its own section
// interface (cloned from the Fb/Fc template at instance-db construction)
// plus the cloned operation body it runs on each call (spec §4.3
// "Function-block instance", "Function instance").
//
// Instance lives here rather than in internal/complexval because it is
// inseparably "a section interface plus its cloned operation list" —
// putting it here, rather than forcing internal/complexval to depend on
// the operation tree (or vice versa), is what the pointer.Keyed/
// pointer.Indexable split in internal/pointer exists to allow.
type Instance struct {
	Name      string
	Interface *section.Interface
	Body      []*Operation
	IsFunction bool // true for Fc: no Static section, a Return cell carries the scalar result
}

// NewInstance constructs an instance from an already-built interface and
// body (the builder clones both from the owning Fb/Fc template).
func NewInstance(name string, iface *section.Interface, body []*Operation, isFunction bool) *Instance {
	return &Instance{Name: name, Interface: iface, Body: body, IsFunction: isFunction}
}

// NestedInterface exposes in's section interface to internal/registry's
// FindNested for a multi-segment path that descends past the instance
// name itself (e.g. "myInstance.output"), without internal/registry
// needing to import this package.
func (in *Instance) NestedInterface() *section.Interface {
	return in.Interface
}

// MemberAt implements pointer.Keyed so an instance held as an Array
// element or Struct member (an array of Fb instances, or an Fb embedded
// inside a Udt-typed struct) can be walked like any other nested value.
func (in *Instance) MemberAt(name ident.ID) (pointer.Pointer, error) {
	p, _, err := in.Interface.GetAny(name)
	return p, err
}

// ResetValue implements pointer.Pointer by resetting every section
// (spec §4.2's bulk reset, applied uniformly to an instance's full
// interface).
func (in *Instance) ResetValue(sink types.MonitorSink) {
	_ = in.Interface.EachOrdered(func(_ section.Kind, _ ident.ID, p pointer.Pointer) error {
		p.ResetValue(sink)
		return nil
	})
}

// Call builds the operation that invokes instance: Input-assign → body →
// Output-assign, in a named cycle-stack log section, with the
// instance's Temp section zeroed first (spec §4.3 "its Temp section is
// zeroed by the engine before each invocation", §4.6 "execution order is
// Input-assign → body → Output-assign; an instance call opens a named
// section on the cycle stack with the instance's name"). A Return from
// within the body is absorbed here — it breaks out of the instance's own
// body, never the caller's.
func Call(id uint64, instance *Instance, inputAssigns, outputAssigns []*Operation) *Operation {
	runInputs := Sequence(inputAssigns)
	runBody := Sequence(instance.Body)
	runOutputs := Sequence(outputAssigns)
	return &Operation{
		ID: id, Label: instance.Name,
		run: func(ctx *Context) (Result, error) {
			var closeSection func()
			if ctx.Broadcast != nil {
				closeSection = ctx.Broadcast.OpenSection(instance.Name)
				defer closeSection()
			}
			instance.Interface.ResetSection(section.Temp, sinkFor(ctx))

			if _, err := runInputs(ctx); err != nil {
				return Result{}, err
			}
			if _, err := runBody(ctx); err != nil {
				return Result{}, err
			}
			if _, err := runOutputs(ctx); err != nil {
				return Result{}, err
			}
			return Result{}, nil
		},
	}
}
