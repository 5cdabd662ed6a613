package translate

import (
	"cirgen/internal/core/errors"
	"cirgen/internal/engine/header"
	"cirgen/internal/engine/ir"
	"strings"
)

// Stats counts what the builder produced and what it dropped.
type Stats struct {
	Functions        int
	Structs          int
	Enums            int
	Typedefs         int
	UnknownTypes     int
	Duplicates       int
	DroppedAnonymous []string
}

// BuildModule translates h into a module, keeping input order.
func BuildModule(h *header.Header) (*ir.Module, error) {
	m, _, err := Build(h)
	return m, err
}

// Build is BuildModule plus statistics.
func Build(h *header.Header) (*ir.Module, Stats, error) {
	if h == nil {
		return nil, Stats{}, errors.New(errors.CodeValidationError, "header is nil")
	}
	b := newBuilder(h)
	m := b.build()
	return m, b.stats, nil
}

// builder carries the per-build dedupe and anonymous-name state.
type builder struct {
	h       *header.Header
	aliases map[string]string
	structs map[string]int
	enums   map[string]int
	stats   Stats
}

func newBuilder(h *header.Header) *builder {
	return &builder{
		h:       h,
		aliases: anonymousAliases(h.Typedefs),
		structs: make(map[string]int),
		enums:   make(map[string]int),
	}
}

func (b *builder) build() *ir.Module {
	m := ir.NewModule(b.h.Name)
	if b.h.Path != "" {
		m.Metadata["source"] = b.h.Path
	}

	for _, fn := range b.h.Functions {
		m.Functions = append(m.Functions, TranslateFunction(fn))
	}

	for _, s := range b.h.Structs {
		name, ok := b.resolveName(s.Name)
		if !ok {
			b.stats.DroppedAnonymous = append(b.stats.DroppedAnonymous, s.Name)
			continue
		}
		s.Name = name
		st := TranslateStruct(s)
		if i, seen := b.structs[name]; seen {
			if len(m.Structs[i].Fields) == 0 && len(st.Fields) > 0 {
				m.Structs[i] = st
			} else {
				b.stats.Duplicates++
			}
			continue
		}
		b.structs[name] = len(m.Structs)
		m.Structs = append(m.Structs, st)
	}

	for _, e := range b.h.Enums {
		name, ok := b.resolveName(e.Name)
		if !ok {
			b.stats.DroppedAnonymous = append(b.stats.DroppedAnonymous, e.Name)
			continue
		}
		e.Name = name
		en := TranslateEnum(e)
		if i, seen := b.enums[name]; seen {
			if len(m.Enums[i].Constants) == 0 && len(en.Constants) > 0 {
				m.Enums[i] = en
			} else {
				b.stats.Duplicates++
			}
			continue
		}
		b.enums[name] = len(m.Enums)
		m.Enums = append(m.Enums, en)
	}

	for _, td := range b.h.Typedefs {
		if placeholder, ok := anonymousTarget(td.Underlying); ok {
			if keyword, named := b.renamedTarget(placeholder, td.Name); named {
				td.Underlying = keyword + " " + td.Name
			}
		}
		m.Typedefs = append(m.Typedefs, TranslateTypedef(td))
	}

	b.stats.Functions = len(m.Functions)
	b.stats.Structs = len(m.Structs)
	b.stats.Enums = len(m.Enums)
	b.stats.Typedefs = len(m.Typedefs)
	b.stats.UnknownTypes = countUnknown(m)
	return m
}

// resolveName returns the declaration name, replacing an anonymous
// placeholder with the typedef that aliases it.
func (b *builder) resolveName(name string) (string, bool) {
	if !header.IsAnonymousName(name) {
		return name, true
	}
	alias, ok := b.aliases[placeholderKey(name)]
	return alias, ok
}

// renamedTarget reports whether the placeholder a typedef aliases was
// renamed to alias, and returns the tag keyword to spell it with.
func (b *builder) renamedTarget(placeholder, alias string) (string, bool) {
	if b.aliases[placeholder] != alias {
		return "", false
	}
	for _, s := range b.h.Structs {
		if placeholderKey(s.Name) == placeholder {
			if s.Union {
				return "union", true
			}
			return "struct", true
		}
	}
	for _, e := range b.h.Enums {
		if placeholderKey(e.Name) == placeholder {
			return "enum", true
		}
	}
	return "", false
}

// anonymousAliases maps each anonymous placeholder to the first typedef
// naming it.
func anonymousAliases(typedefs []header.Typedef) map[string]string {
	aliases := make(map[string]string)
	for _, td := range typedefs {
		placeholder, ok := anonymousTarget(td.Underlying)
		if !ok {
			continue
		}
		if _, exists := aliases[placeholder]; !exists {
			aliases[placeholder] = td.Name
		}
	}
	return aliases
}

// anonymousTarget extracts the placeholder from an underlying spelling such
// as "struct (anonymous at api.h:3:9)". Pointers to anonymous bodies do not
// count as aliases.
func anonymousTarget(underlying string) (string, bool) {
	s := placeholderKey(underlying)
	if s == "" || !header.IsAnonymousName(s) || !strings.HasSuffix(s, ")") {
		return "", false
	}
	return s, true
}

// placeholderKey drops the tag keyword and qualifiers from an anonymous
// name so "struct (unnamed at a.h:1:9)" and "(unnamed at a.h:1:9)" match.
func placeholderKey(name string) string {
	s := header.NormalizeSpelling(name)
	for _, keyword := range []string{"const ", "struct ", "union ", "enum ", "class "} {
		s = strings.TrimPrefix(s, keyword)
	}
	return s
}

func countUnknown(m *ir.Module) int {
	n := 0
	count := func(t ir.Type) {
		if t != nil && t.Kind() == ir.KindUnknown {
			n++
		}
	}
	for _, f := range m.Functions {
		count(f.ReturnType)
		for _, p := range f.Params {
			count(p.Type)
		}
	}
	for _, s := range m.Structs {
		for _, f := range s.Fields {
			count(f.Type)
		}
	}
	for _, td := range m.Typedefs {
		count(td.Underlying)
	}
	return n
}
