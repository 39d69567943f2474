// Package registry implements the process-wide identifier table's
// sibling: global block registration, nested lookup, and the two
// allow-lists (excluded type/section combinations, filtered
// arithmetic operations) — spec §4.1.
//
// Grounded on the teacher's internal/module/module.go ModuleLoader
// (cache map + mutex) generalized to two namespaces of global blocks.
package registry

import (
	"sync"

	"plcsim/internal/ident"
	"plcsim/internal/perror"
	"plcsim/internal/pointer"
	"plcsim/internal/section"
	"plcsim/internal/types"
)

// Namespace separates provider packs from the user program (spec §4.1
// "register_global(namespace, name, block)").
type Namespace int

const (
	Provider Namespace = iota
	Program
)

// BlockKind is the closed set of global-block kinds (spec §3 "Global
// block").
type BlockKind int

const (
	Ob BlockKind = iota
	Fb
	Fc
	GlobalDb
	InstanceDb
	Udt
	Template
)

// Block is anything the registry can register and look up by name: an
// Ob/Fb/Fc/Db/Udt/Template. The registry only needs enough of a block to
// identify it and, for Db kinds, descend into its interface — so the
// interface is kept loosely typed here and the concrete build status
// lives in internal/builder.
type Block struct {
	Kind      BlockKind
	Name      ident.ID
	Namespace Namespace
	Interface *section.Interface // non-nil once built; Db kinds only need this for find_nested

	// Instance is non-nil only for an InstanceDb block: the
	// *operation.Instance the builder cloned from the named Fb/Fc
	// template (spec §3 "Function-block instance"). Declared as the
	// local instanceBlock interface rather than a concrete
	// *operation.Instance so this package need not import
	// internal/operation, which already imports internal/registry for
	// leaf-value resolution.
	Instance instanceBlock
}

// instanceBlock is implemented by *operation.Instance. A local interface
// keeps the registry<->operation import direction one-way.
type instanceBlock interface {
	pointer.Pointer
	NestedInterface() *section.Interface
}

// Registry is process-wide state: the string interner, registered
// global blocks per namespace, and the two static allow-list tables.
type Registry struct {
	Interner *ident.Interner

	mu        sync.RWMutex
	blocks    map[Namespace]map[ident.ID]*Block
	unitTests []UnitTestRef
	filteredOps map[opKey]bool
}

// UnitTestRef names a registered unit-test operation for enumeration
// (spec §4.1 "enumerate unit tests").
type UnitTestRef struct {
	BlockName ident.ID
	OpID      uint64
	Label     string
}

// New creates an empty registry bound to a fresh interner.
func New() *Registry {
	return &Registry{
		Interner: ident.New(),
		blocks: map[Namespace]map[ident.ID]*Block{
			Provider: make(map[ident.ID]*Block),
			Program:  make(map[ident.ID]*Block),
		},
	}
}

// RegisterGlobal registers a new named block in namespace, failing with
// Duplicate if the name is already taken there (spec §4.1).
func (r *Registry) RegisterGlobal(ns Namespace, name ident.ID, block *Block) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.blocks[ns][name]; exists {
		return perror.Newf(perror.Duplicate, "block %q already registered", r.Interner.MustResolve(name))
	}
	r.blocks[ns][name] = block
	return nil
}

// Lookup finds a block by name, searching Program first then Provider
// (a program block may shadow a provider one of the same name).
func (r *Registry) Lookup(name ident.ID) (*Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.blocks[Program][name]; ok {
		return b, true
	}
	b, ok := r.blocks[Provider][name]
	return b, ok
}

// LookupIn finds a block by name within a specific namespace only.
func (r *Registry) LookupIn(ns Namespace, name ident.ID) (*Block, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blocks[ns][name]
	return b, ok
}

// NestedResult is the outcome of FindNested (spec §4.1 "Global | Local |
// None").
type NestedResultKind int

const (
	NestedNone NestedResultKind = iota
	NestedGlobal
	NestedLocal
)

// FindNested resolves a dotted path whose first segment names a
// registered Db; it only ever descends into Db interfaces — any other
// global block kind is a leaf (spec §4.1).
func (r *Registry) FindNested(path ident.Path) (NestedResultKind, any, error) {
	if len(path) == 0 {
		return NestedNone, nil, nil
	}
	block, ok := r.Lookup(path[0])
	if !ok {
		return NestedNone, nil, nil
	}
	if block.Kind != GlobalDb && block.Kind != InstanceDb {
		if len(path) == 1 {
			return NestedGlobal, block, nil
		}
		return NestedNone, nil, nil
	}
	if block.Kind == InstanceDb {
		if block.Instance == nil {
			return NestedNone, nil, perror.Newf(perror.InvalidReference, "block %q has no built instance yet", r.Interner.MustResolve(path[0]))
		}
		if len(path) == 1 {
			// A bare reference to an instance_db names the instance
			// itself, resolved by internal/builder's call-target
			// handling into an *operation.Instance (spec §4.6 "call").
			return NestedGlobal, block.Instance, nil
		}
		segs := make(section.NestedPath, len(path)-1)
		for i, id := range path[1:] {
			segs[i] = section.NamedSegment(id)
		}
		p, err := block.Instance.NestedInterface().TryGetNested(segs)
		if err != nil {
			return NestedNone, nil, err
		}
		return NestedLocal, p, nil
	}
	if len(path) == 1 {
		return NestedGlobal, block, nil
	}
	if block.Interface == nil {
		return NestedNone, nil, perror.Newf(perror.InvalidReference, "block %q has no built interface yet", r.Interner.MustResolve(path[0]))
	}
	segs := make(section.NestedPath, len(path)-1)
	for i, id := range path[1:] {
		segs[i] = section.NamedSegment(id)
	}
	p, err := block.Interface.TryGetNested(segs)
	if err != nil {
		return NestedNone, nil, err
	}
	return NestedLocal, p, nil
}

// RegisterUnitTest records a unit-test operation for enumeration (spec
// §4.1, §4.8 stop condition UnitTestsPassed).
func (r *Registry) RegisterUnitTest(ref UnitTestRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unitTests = append(r.unitTests, ref)
}

// UnitTests returns every registered unit test.
func (r *Registry) UnitTests() []UnitTestRef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]UnitTestRef, len(r.unitTests))
	copy(out, r.unitTests)
	return out
}

// excludedSectionTypes lists (Family, Section) combinations IEC
// compatibility forbids. The Constant and Return entries are empty, so
// no combination is rejected by this table today. Expressed as a lookup table per spec §9's "table-driven to keep the
// runtime path branch-free".
var excludedSectionTypes = map[section.Kind]map[types.Family]bool{
	section.Constant: {},
	section.Return:   {},
}

// CheckExcludedTypeInSection rejects a (section, family) combination the
// allow-list forbids (spec §4.1 check_excluded_type_in_section).
func (r *Registry) CheckExcludedTypeInSection(kind section.Kind, family types.Family) error {
	if excludedSectionTypes[kind][family] {
		return perror.Newf(perror.TypeMismatch, "family %s is not permitted in section %s", family, kind)
	}
	return nil
}

// CheckExcludedType is the section-agnostic half of the same check: a
// few families (reserved for future extension) are globally excluded
// regardless of section. None are excluded today; the hook exists so a
// provider pack's custom alias types can be vetted uniformly.
func (r *Registry) CheckExcludedType(family types.Family) error {
	return nil
}

// opKey identifies one (operator, lhs family, rhs family) triple of the
// cross-type arithmetic allow-list (spec §4.1
// check_filtered_operation, §4.7, §9 "table-driven to keep the runtime
// path branch-free"). internal/dispatch is the sole populator, via
// AllowOperation, at process boot — the registry just owns the table so
// the builder can ask "is this legal" before ever constructing a
// kernel closure.
type opKey struct {
	Op  string
	Lhs types.Family
	Rhs types.Family
}

// AllowOperation records that op is permitted between lhs and rhs.
// Called once per table entry by internal/dispatch's init-time table
// construction.
func (r *Registry) AllowOperation(op string, lhs, rhs types.Family) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filteredOps == nil {
		r.filteredOps = make(map[opKey]bool)
	}
	r.filteredOps[opKey{op, lhs, rhs}] = true
}

// CheckFilteredOperation returns Ok iff (op, lhs, rhs) is in the
// allow-list (spec §4.1, §4.7 step 1).
func (r *Registry) CheckFilteredOperation(op string, lhs, rhs types.Family) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.filteredOps[opKey{op, lhs, rhs}] {
		return nil
	}
	return perror.Newf(perror.TypeMismatch, "operation %q is not permitted between %s and %s", op, lhs, rhs)
}
