// Package decl implements the JSON schema for the two user-supplied
// artifacts (spec §6 "JSON input (provider and program)"): the
// top-level block map, section/member declarations, body-operation
// tags, and simulation parameters. This is mechanical shape decoding —
// adjacent to, but not itself, the "JSON ingestion plumbing" spec §1
// names as an external collaborator (reading bytes off disk/network is
// the host's job; turning those bytes into typed Go values the builder
// can walk is this package's).
package decl

import (
	"encoding/json"
	"strings"

	"plcsim/internal/perror"
)

// Document is a fully decoded provider or program artifact.
type Document struct {
	Blocks  map[string]*BlockDecl // keyed by the block's short name (after the last '/')
	Monitor [][]string
}

// BlockDecl is one `file:...` entry (spec §6: "keys starting with
// `file:` denote a block; the substring after the last `/` is the block
// name. Each block has `{ty, src}`").
type BlockDecl struct {
	Ty  string
	Src json.RawMessage
}

// rawBlock mirrors the on-wire shape before Src is deferred-parsed.
type rawBlock struct {
	Ty  string          `json:"ty"`
	Src json.RawMessage `json:"src"`
}

// Load decodes a provider or program top-level JSON document.
func Load(data []byte) (*Document, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding top-level document")
	}

	doc := &Document{Blocks: make(map[string]*BlockDecl)}
	for key, raw := range top {
		if key == "monitor" {
			if err := json.Unmarshal(raw, &doc.Monitor); err != nil {
				return nil, perror.Wrap(perror.ParseError, err, "decoding monitor list")
			}
			continue
		}
		if !strings.HasPrefix(key, "file:") {
			continue
		}
		var rb rawBlock
		if err := json.Unmarshal(raw, &rb); err != nil {
			return nil, perror.Wrap(perror.ParseError, err, "decoding block "+key)
		}
		name := key
		if idx := strings.LastIndex(key, "/"); idx >= 0 {
			name = key[idx+1:]
		}
		if _, dup := doc.Blocks[name]; dup {
			return nil, perror.Newf(perror.Duplicate, "block name %q appears more than once", name)
		}
		doc.Blocks[name] = &BlockDecl{Ty: rb.Ty, Src: rb.Src}
	}
	return doc, nil
}

// Trace is the optional source-location object attached to a body
// operation (spec §6 "an optional trace object {file, column, line}").
type Trace struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// MemberSrc is the `src` half of a section member declaration (spec §6:
// "src carries {value?, id, ...}"). Extra fields cover arrays (Lo/Hi),
// references to a named Udt/Fb type (Of), and inline struct members.
type MemberSrc struct {
	Value   json.RawMessage      `json:"value,omitempty"`
	ID      uint64               `json:"id,omitempty"`
	Lo      *int64               `json:"lo,omitempty"`
	Hi      *int64               `json:"hi,omitempty"`
	Of      string               `json:"of,omitempty"`
	Members map[string]MemberDecl `json:"members,omitempty"`
}

// MemberDecl is one entry of a section mapping (spec §6 "Each section is
// a mapping name -> {ty, src} where ty is a family tag").
type MemberDecl struct {
	Ty  string    `json:"ty"`
	Src MemberSrc `json:"src"`
}

// SectionsDecl is the full interface declaration of an executable or Db
// block, keyed case-insensitively by section name (spec §6 "Section
// names in interfaces (case-insensitive keys)").
type SectionsDecl struct {
	Input    map[string]MemberDecl `json:"input,omitempty"`
	Output   map[string]MemberDecl `json:"output,omitempty"`
	InOut    map[string]MemberDecl `json:"inout,omitempty"`
	Static   map[string]MemberDecl `json:"static,omitempty"`
	Temp     map[string]MemberDecl `json:"temp,omitempty"`
	Constant map[string]MemberDecl `json:"constant,omitempty"`
	Return   map[string]MemberDecl `json:"return,omitempty"`
}

// ExecutableSrc is the `src` shape for Ob/Fb/Fc blocks: an interface
// plus a body operation list.
type ExecutableSrc struct {
	SectionsDecl
	Body  []json.RawMessage `json:"body"`
	Trace *Trace            `json:"trace,omitempty"`
}

// DbSrc is the `src` shape for Global/Instance Db blocks: an interface
// with initial values, no body. InstanceOf names the Fb this instance
// backs (spec §3 "Function-block instance").
type DbSrc struct {
	SectionsDecl
	InstanceOf string `json:"instance_of,omitempty"`
}

// UdtSrc is the `src` shape for a Udt: a flat member declaration list
// (no sections — a Udt is pure structure, spec §3 "Struct").
type UdtSrc struct {
	Members map[string]MemberDecl `json:"members"`
}

// TemplateSrc is the `src` shape for a provider-only Template: a body
// fragment with no section interface of its own (SPEC_FULL §12.5).
type TemplateSrc struct {
	Body []json.RawMessage `json:"body"`
}

// Params is the simulation-parameters document (spec §6 "Simulation
// parameters").
type Params struct {
	StopAfter int64 `json:"stopAfter"` // milliseconds of non-paused wall-clock run time; 0 = no deadline
	StopOn    int   `json:"stopOn"`    // 0 = Infinite, 1 = UnitTestsPassed
}

// LoadParams decodes a simulation-parameters document. Per spec §9's
// noted open question, if this is called more than once the last call's
// value is what the engine observes — LoadParams itself has no memory
// of earlier calls; the caller (cmd/plcsim) simply overwrites its held
// Params value, silently, each time.
func LoadParams(data []byte) (*Params, error) {
	var p Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, perror.Wrap(perror.ParseError, err, "decoding simulation parameters")
	}
	return &p, nil
}

// ParseSrc decodes a block's raw `src` into one of ExecutableSrc, DbSrc,
// UdtSrc, or TemplateSrc, selected by the caller based on BlockDecl.Ty.
func ParseSrc(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return perror.Wrap(perror.ParseError, err, "decoding block src")
	}
	return nil
}

// DecodeSections normalizes a SectionsDecl into name-insensitive lookups
// already applied by Go's JSON unmarshaler (the struct field tags are
// already lowercase) — provided as a single entry point so callers never
// touch the embedded struct fields directly.
func (s SectionsDecl) DecodeSections() map[string]map[string]MemberDecl {
	return map[string]map[string]MemberDecl{
		"input": s.Input, "output": s.Output, "inout": s.InOut,
		"static": s.Static, "temp": s.Temp, "constant": s.Constant, "return": s.Return,
	}
}
