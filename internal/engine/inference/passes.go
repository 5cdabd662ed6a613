package inference

import (
	"cirgen/internal/engine/ir"
)

// Pass names.
const (
	PassCreateDestroy    = "create-destroy"
	PassOutParameter     = "out-parameter"
	PassBufferLength     = "buffer-length"
	PassStringLength     = "string-length"
	PassCallbackUserdata = "callback-userdata"
	PassErrorConvention  = "error-convention"
)

// Pass is one inference step. Requires names the passes whose tags Run
// reads; the engine rejects orders that break them.
type Pass struct {
	Name     string
	Requires []string
	Run      func(m *ir.Module, rules *Rules)
}

// DefaultPasses returns the standard pipeline in order.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: PassCreateDestroy, Run: inferCreateDestroy},
		{Name: PassOutParameter, Run: inferOutParameters},
		{Name: PassBufferLength, Requires: []string{PassOutParameter}, Run: inferBufferLength},
		{Name: PassStringLength, Run: inferStringLength},
		{Name: PassCallbackUserdata, Run: inferCallbacks},
		{Name: PassErrorConvention, Requires: []string{PassOutParameter}, Run: inferErrorConvention},
	}
}

// isHandleShape reports the return shapes an allocator hands out: a
// pointer or an opaque struct/typedef reference.
func isHandleShape(t ir.Type) bool {
	switch t.(type) {
	case ir.Pointer, ir.StructRef, ir.TypedefRef:
		return true
	}
	return false
}

func inferCreateDestroy(m *ir.Module, rules *Rules) {
	var creators, destroyers []*ir.Function
	for _, f := range m.Functions {
		if isHandleShape(f.ReturnType) && rules.Creator.Match(f.Name) {
			f.AddPattern(ir.CreateFunction{ResourceType: ir.TrimPointer(f.ReturnType.Spelling())})
			f.Semantics.ReturnsOwned = true
			creators = append(creators, f)
		}
		if rules.Destroyer.Match(f.Name) {
			for i, p := range f.Params {
				if _, ok := p.Type.(ir.Pointer); !ok {
					continue
				}
				f.AddPattern(ir.DestroyFunction{ResourceType: p.Type.Spelling(), ParamIndex: i})
				f.MarkConsumed(i)
			}
			destroyers = append(destroyers, f)
		}
	}

	for _, c := range creators {
		for _, created := range c.PatternsOf(ir.PatternCreateFunction) {
			key := ir.ResourceKey(created.(ir.CreateFunction).ResourceType)
			if d := firstDestroyer(destroyers, c, key); d != nil {
				c.SetFreedBy(d.Name)
			}
		}
	}
}

func firstDestroyer(destroyers []*ir.Function, creator *ir.Function, key string) *ir.Function {
	for _, d := range destroyers {
		if d == creator {
			continue
		}
		for _, p := range d.PatternsOf(ir.PatternDestroyFunction) {
			if ir.ResourceKey(p.(ir.DestroyFunction).ResourceType) == key {
				return d
			}
		}
	}
	return nil
}

func inferOutParameters(m *ir.Module, rules *Rules) {
	for _, f := range m.Functions {
		last := len(f.Params) - 1
		for i, p := range f.Params {
			if !ir.IsMutablePointer(p.Type) {
				continue
			}
			if rules.OutParam.Match(p.Name) || i == last {
				f.AddPattern(ir.OutParameter{ParamIndex: i})
			}
		}
	}
}

func inferBufferLength(m *ir.Module, rules *Rules) {
	for _, f := range m.Functions {
		for i, p := range f.Params {
			if _, ok := ir.Pointee(p.Type).(ir.Primitive); !ok {
				continue
			}
			j := lengthParam(f, i, rules.Length)
			if j < 0 {
				continue
			}
			f.AddPattern(ir.BufferWithLength{BufferParam: i, LengthParam: j, Mode: bufferMode(f, i)})
		}
	}
}

func bufferMode(f *ir.Function, i int) ir.Direction {
	switch {
	case f.IsOutParameter(i):
		return ir.DirOut
	case f.Params[i].Declared == ir.DirInOut:
		return ir.DirInOut
	default:
		return ir.DirIn
	}
}

// lengthParam returns the first parameter other than skip that is an
// integer-like primitive named by rule, or -1.
func lengthParam(f *ir.Function, skip int, rule NameRule) int {
	for j, q := range f.Params {
		if j == skip {
			continue
		}
		if ir.IsIntegerType(q.Type) && rule.Match(q.Name) {
			return j
		}
	}
	return -1
}

func isStringParam(t ir.Type) bool {
	if _, ok := t.(ir.CString); ok {
		return true
	}
	prim, ok := ir.Pointee(t).(ir.Primitive)
	return ok && prim.Name.IsChar()
}

func inferStringLength(m *ir.Module, rules *Rules) {
	for _, f := range m.Functions {
		for i, p := range f.Params {
			if !isStringParam(p.Type) {
				continue
			}
			if j := lengthParam(f, i, rules.StringLength); j >= 0 {
				f.AddPattern(ir.StringWithLength{StringParam: i, LengthParam: j})
			}
		}
	}
}

func inferCallbacks(m *ir.Module, rules *Rules) {
	for _, f := range m.Functions {
		for i, p := range f.Params {
			if _, ok := rules.effective(m, p.Type).(ir.FunctionPointer); ok {
				f.AddPattern(ir.CallbackParameter{ParamIndex: i})
			}
			if rules.Userdata.Match(p.Name) {
				f.AddPattern(ir.UserdataParameter{ParamIndex: i})
			}
		}
	}
}

func inferErrorConvention(m *ir.Module, rules *Rules) {
	for _, f := range m.Functions {
		ret := rules.effective(m, f.ReturnType)
		switch {
		case ir.IsIntegerType(ret):
			if rules.ErrorStatus.Match(f.Name) || f.HasPattern(ir.PatternOutParameter) {
				f.SetErrorConvention(ir.ErrorNonzero)
			} else {
				f.SetErrorConvention(ir.ErrorNegative)
			}
		case isPointer(ret):
			f.SetErrorConvention(ir.ErrorNullPointer)
		}
	}
}

// effective is the type a shape check sees: t itself, or its typedef
// target when FollowTypedefs is set.
func (r *Rules) effective(m *ir.Module, t ir.Type) ir.Type {
	if r.FollowTypedefs {
		return m.Underlying(t)
	}
	return t
}

func isPointer(t ir.Type) bool {
	_, ok := t.(ir.Pointer)
	return ok
}
