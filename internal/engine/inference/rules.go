package inference

import "strings"

// NameRule matches a lowercased identifier by prefix or substring.
type NameRule struct {
	Prefixes []string
	Contains []string
}

func (r NameRule) Match(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range r.Prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	for _, c := range r.Contains {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// Extend returns a copy of r with extra keywords. A keyword written as
// "^init" is a prefix; anything else is a substring.
func (r NameRule) Extend(keywords ...string) NameRule {
	out := NameRule{
		Prefixes: append([]string(nil), r.Prefixes...),
		Contains: append([]string(nil), r.Contains...),
	}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		switch {
		case k == "" || k == "^":
		case strings.HasPrefix(k, "^"):
			out.Prefixes = appendUnique(out.Prefixes, k[1:])
		default:
			out.Contains = appendUnique(out.Contains, k)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// Rules is the predicate table the passes consult for naming conventions.
type Rules struct {
	Creator      NameRule
	Destroyer    NameRule
	OutParam     NameRule
	Length       NameRule
	StringLength NameRule
	Userdata     NameRule
	ErrorStatus  NameRule
	// FollowTypedefs makes the callback and error-convention passes look
	// through typedef aliases. Off by default: only the declared type counts.
	FollowTypedefs bool
}

func DefaultRules() Rules {
	return Rules{
		Creator:      NameRule{Prefixes: []string{"init"}, Contains: []string{"create", "new", "alloc"}},
		Destroyer:    NameRule{Contains: []string{"destroy", "free", "release", "dispose"}},
		OutParam:     NameRule{Prefixes: []string{"out"}, Contains: []string{"result", "ret"}},
		Length:       NameRule{Contains: []string{"len", "length", "size", "count"}},
		StringLength: NameRule{Contains: []string{"len", "length", "size"}},
		Userdata:     NameRule{Contains: []string{"userdata", "context"}},
		ErrorStatus:  NameRule{Contains: []string{"error", "status"}},
	}
}

// Extra holds additional keywords per rule, usually from configuration.
type Extra struct {
	Creator      []string
	Destroyer    []string
	OutParam     []string
	Length       []string
	StringLength []string
	Userdata     []string
	ErrorStatus  []string

	FollowTypedefs bool
}

// With returns r extended by extra.
func (r Rules) With(extra Extra) Rules {
	return Rules{
		Creator:      r.Creator.Extend(extra.Creator...),
		Destroyer:    r.Destroyer.Extend(extra.Destroyer...),
		OutParam:     r.OutParam.Extend(extra.OutParam...),
		Length:       r.Length.Extend(extra.Length...),
		StringLength: r.StringLength.Extend(extra.StringLength...),
		Userdata:     r.Userdata.Extend(extra.Userdata...),
		ErrorStatus:  r.ErrorStatus.Extend(extra.ErrorStatus...),

		FollowTypedefs: r.FollowTypedefs || extra.FollowTypedefs,
	}
}
