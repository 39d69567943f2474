// Package builder implements the two-phase deferred builder (spec §4.5
// "Deferred builder (two phases with status machine)"): it turns a
// decoded provider/program decl.Document into registered blocks with
// solved section interfaces and resolved operation bodies, detecting
// interface cycles (RecursiveType) and memoizing template expansion by
// content hash.
//
// Grounded on the teacher's internal/module/module.go dependency-order
// loading (the same Default/Pending/Solved shape it uses for package
// initialization cycles), generalized to two independent status axes
// per spec §4.5.
package builder

import (
	"encoding/json"

	"plcsim/internal/complexval"
	"plcsim/internal/decl"
	"plcsim/internal/ident"
	"plcsim/internal/operation"
	"plcsim/internal/perror"
	"plcsim/internal/registry"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// Status is one axis of a block's build state (spec §4.5: "each
// buildable block has two statuses: interface_status and body_status,
// each in {Default, Pending, Solved}").
type Status int

const (
	Default Status = iota
	Pending
	Solved
)

// blockState tracks one global block through both build phases.
type blockState struct {
	ns   registry.Namespace
	name ident.ID
	kind registry.BlockKind

	ifaceStatus Status
	bodyStatus  Status

	iface      *section.Interface
	body       []*operation.Operation
	isFunction bool
	returnCell any // *types.Cell once solved, nil until then

	udtProto *complexval.Struct // Udt kind only: the flat member prototype, cloned per reference
}

// Builder drives both build phases over every document registered with
// it.
type Builder struct {
	Reg  *registry.Registry
	docs map[registry.Namespace]*decl.Document

	states map[ident.ID]*blockState
	order  []ident.ID // declaration order, for deterministic iteration

	templates *templateCache

	nextOpID uint64
}

// New creates a builder bound to reg (whose interner every document's
// names are interned through).
func New(reg *registry.Registry) *Builder {
	return &Builder{
		Reg:       reg,
		docs:      make(map[registry.Namespace]*decl.Document),
		states:    make(map[ident.ID]*blockState),
		templates: newTemplateCache(),
	}
}

// LoadDocument registers every block in doc under namespace ns, in
// Default/Default status, ready for BuildAll to solve.
func (b *Builder) LoadDocument(ns registry.Namespace, doc *decl.Document) error {
	b.docs[ns] = doc
	for rawName, blk := range doc.Blocks {
		name := b.Reg.Interner.Intern(rawName)
		kind, ok := blockKindOf(blk.Ty)
		if !ok {
			return perror.Newf(perror.ParseError, "unknown block type %q for %q", blk.Ty, rawName)
		}
		if _, exists := b.states[name]; exists {
			return perror.Newf(perror.Duplicate, "block %q already loaded", rawName)
		}
		b.states[name] = &blockState{ns: ns, name: name, kind: kind}
		b.order = append(b.order, name)
	}
	return nil
}

func blockKindOf(ty string) (registry.BlockKind, bool) {
	switch ty {
	case "ob":
		return registry.Ob, true
	case "fb":
		return registry.Fb, true
	case "fc":
		return registry.Fc, true
	case "global_db":
		return registry.GlobalDb, true
	case "instance_db":
		return registry.InstanceDb, true
	case "udt":
		return registry.Udt, true
	case "template":
		return registry.Template, true
	}
	return 0, false
}

// BuildAll runs both phases over every loaded block, in declaration
// order (spec §4.5 "Phase A... for every block in dependency order...
// Phase B... for every executable block").
func (b *Builder) BuildAll() error {
	for _, name := range b.order {
		if err := b.buildInterface(name); err != nil {
			return err
		}
	}
	for _, name := range b.order {
		st := b.states[name]
		if st.kind == registry.Ob || st.kind == registry.Fb || st.kind == registry.Fc {
			if err := b.buildBody(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *Builder) lookupDecl(name ident.ID) (*decl.BlockDecl, registry.Namespace, error) {
	st := b.states[name]
	rawName := b.Reg.Interner.MustResolve(name)
	doc, ok := b.docs[st.ns]
	if !ok {
		return nil, 0, perror.Newf(perror.NotFound, "no document loaded for namespace of %q", rawName)
	}
	bd, ok := doc.Blocks[rawName]
	if !ok {
		return nil, 0, perror.Newf(perror.NotFound, "block %q not found in its document", rawName)
	}
	return bd, st.ns, nil
}

// buildInterface solves name's section interface, transitioning
// Default→Pending→Solved; re-entry while Pending is a cycle (spec §4.5
// "Observing Pending on re-entry indicates a cycle; fail with
// RecursiveType").
func (b *Builder) buildInterface(name ident.ID) error {
	st, ok := b.states[name]
	if !ok {
		return perror.Newf(perror.NotFound, "block %d not loaded", name)
	}
	switch st.ifaceStatus {
	case Solved:
		return nil
	case Pending:
		return perror.Newf(perror.RecursiveType, "cyclic interface reference through %q", b.Reg.Interner.MustResolve(name))
	}
	st.ifaceStatus = Pending

	bd, _, err := b.lookupDecl(name)
	if err != nil {
		return err
	}

	switch st.kind {
	case registry.Udt:
		proto, err := b.buildUdtPrototype(bd.Src)
		if err != nil {
			return err
		}
		st.udtProto = proto
	case registry.Template:
		// A template has no section interface of its own; nothing to solve.
	case registry.InstanceDb:
		var dbSrc decl.DbSrc
		if err := decl.ParseSrc(bd.Src, &dbSrc); err != nil {
			return err
		}
		if dbSrc.InstanceOf == "" {
			return perror.Newf(perror.ParseError, "instance_db %q missing instance_of", b.Reg.Interner.MustResolve(name))
		}
		inst, err := b.buildInstance(name, dbSrc.InstanceOf)
		if err != nil {
			return err
		}
		st.iface = inst.Interface
		st.isFunction = inst.IsFunction

		block := &registry.Block{Kind: st.kind, Name: name, Namespace: st.ns, Interface: inst.Interface, Instance: inst}
		if err := b.Reg.RegisterGlobal(st.ns, name, block); err != nil {
			return err
		}
	default:
		var src decl.SectionsDecl
		var full decl.ExecutableSrc
		if st.kind == registry.GlobalDb {
			var dbSrc decl.DbSrc
			if err := decl.ParseSrc(bd.Src, &dbSrc); err != nil {
				return err
			}
			src = dbSrc.SectionsDecl
			st.isFunction = false
		} else {
			if err := decl.ParseSrc(bd.Src, &full); err != nil {
				return err
			}
			src = full.SectionsDecl
			st.isFunction = st.kind == registry.Fc
		}
		iface, err := b.buildInterfaceFromSections(src)
		if err != nil {
			return err
		}
		st.iface = iface

		block := &registry.Block{Kind: st.kind, Name: name, Namespace: st.ns, Interface: iface}
		if err := b.Reg.RegisterGlobal(st.ns, name, block); err != nil {
			return err
		}
	}

	st.ifaceStatus = Solved
	return nil
}

// buildInstance materializes an operation.Instance for an instance_db:
// a fresh section interface and a freshly translated operation body,
// built straight from the named Fb/Fc's own declaration rather than
// shared with it, so distinct instance_dbs of the same Fb never alias
// each other's Static cells (spec §3 "Function-block instance: a
// section interface plus a cloned body", §4.3 "cloned from the Fb
// template at instance-db construction"). instanceName becomes the
// Instance's display name (the cycle-stack section name on `call`, spec
// §4.6), not the Fb's own name, so distinct instances of the same Fb
// log distinguishably.
func (b *Builder) buildInstance(instanceName ident.ID, fbRawName string) (*operation.Instance, error) {
	fbID := b.Reg.Interner.Intern(fbRawName)
	fbSt, ok := b.states[fbID]
	if !ok || (fbSt.kind != registry.Fb && fbSt.kind != registry.Fc) {
		return nil, perror.Newf(perror.NotFound, "instance_of %q does not name a declared function block", fbRawName)
	}

	bd, _, err := b.lookupDecl(fbID)
	if err != nil {
		return nil, err
	}
	var full decl.ExecutableSrc
	if err := decl.ParseSrc(bd.Src, &full); err != nil {
		return nil, err
	}

	iface, err := b.buildInterfaceFromSections(full.SectionsDecl)
	if err != nil {
		return nil, err
	}
	tb := &bodyTranslator{builder: b, iface: iface, blockName: instanceName}
	body, err := tb.translateBody(full.Body)
	if err != nil {
		return nil, err
	}
	return operation.NewInstance(b.Reg.Interner.MustResolve(instanceName), iface, body, fbSt.kind == registry.Fc), nil
}

// buildInterfaceFromSections walks every declared section, constructing
// a pointer.Pointer per member via buildMember.
func (b *Builder) buildInterfaceFromSections(src decl.SectionsDecl) (*section.Interface, error) {
	iface := section.NewInterface()
	for kindName, members := range src.DecodeSections() {
		kind := sectionKindOf(kindName)
		for memberName, md := range members {
			p, err := b.buildMember(md)
			if err != nil {
				return nil, err
			}
			if err := b.Reg.CheckExcludedTypeInSection(kind, familyOfMember(p)); err != nil {
				return nil, err
			}
			id := b.Reg.Interner.Intern(memberName)
			if err := iface.Add(kind, id, p); err != nil {
				return nil, err
			}
		}
	}
	return iface, nil
}

func sectionKindOf(name string) section.Kind {
	switch name {
	case "input":
		return section.Input
	case "output":
		return section.Output
	case "inout":
		return section.InOut
	case "static":
		return section.Static
	case "temp":
		return section.Temp
	case "constant":
		return section.Constant
	case "return":
		return section.Return
	}
	return section.None
}

// buildBody solves name's operation body, transitioning
// Default→Pending→Solved, building the interface first if it is still
// Default (spec §4.5 "if they find a block still in interface=Default,
// they must first build that block's interface").
func (b *Builder) buildBody(name ident.ID) error {
	st := b.states[name]
	switch st.bodyStatus {
	case Solved:
		return nil
	case Pending:
		return nil // mutual recursion among bodies is permitted, spec §4.5
	}
	st.bodyStatus = Pending

	if st.ifaceStatus == Default {
		if err := b.buildInterface(name); err != nil {
			return err
		}
	}

	bd, _, err := b.lookupDecl(name)
	if err != nil {
		return err
	}
	var full decl.ExecutableSrc
	if err := decl.ParseSrc(bd.Src, &full); err != nil {
		return err
	}

	tb := &bodyTranslator{builder: b, iface: st.iface, blockName: name}
	ops, err := tb.translateBody(full.Body)
	if err != nil {
		return err
	}
	st.body = ops
	st.bodyStatus = Solved
	return nil
}

// nextID hands out a process-unique operation id (spec §4.6 every
// operation needs one for breakpoints/error traces).
func (b *Builder) nextID() uint64 {
	b.nextOpID++
	return b.nextOpID
}

// RootBody returns the solved operation list and section interface for
// an Ob/Fb/Fc block by name, for the engine to drive the per-cycle loop
// over (spec §4.8 step 3 "run every operation in the OB's body").
func (b *Builder) RootBody(name ident.ID) ([]*operation.Operation, *section.Interface, error) {
	st, ok := b.states[name]
	if !ok {
		return nil, nil, perror.Newf(perror.NotFound, "block %q not loaded", b.Reg.Interner.MustResolve(name))
	}
	if st.bodyStatus != Solved {
		return nil, nil, perror.Newf(perror.NotFound, "block %q has not been built", b.Reg.Interner.MustResolve(name))
	}
	return st.body, st.iface, nil
}

// ResetAllTemp resets the Temp section of every registered program and
// provider block (spec §4.8 step 4, "reset Temp section of every
// registered program and provider block").
func (b *Builder) ResetAllTemp(sink types.MonitorSink) {
	for _, name := range b.order {
		st := b.states[name]
		if st.iface == nil {
			continue
		}
		st.iface.ResetSection(section.Temp, sink)
	}
}

// rawSrc re-marshals a json.RawMessage for cache-keying purposes
// (template memoization, template.go).
func rawSrc(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}
