package ir

import "strconv"

// PatternKind names a usage idiom inferred for a function.
type PatternKind string

const (
	PatternCreateFunction    PatternKind = "create-function"
	PatternDestroyFunction   PatternKind = "destroy-function"
	PatternOutParameter      PatternKind = "out-parameter"
	PatternBufferWithLength  PatternKind = "buffer-with-length"
	PatternStringWithLength  PatternKind = "string-with-length"
	PatternCallbackParameter PatternKind = "callback-parameter"
	PatternUserdataParameter PatternKind = "userdata-parameter"
)

// Pattern is one inferred tag. Like Type, the set is closed.
type Pattern interface {
	Kind() PatternKind
	// Key identifies the pattern within its kind on one function; two tags
	// with equal (Kind, Key) are duplicates.
	Key() string
	irPattern()
}

type CreateFunction struct {
	ResourceType string
}

type DestroyFunction struct {
	ResourceType string
	ParamIndex   int
}

type OutParameter struct {
	ParamIndex int
}

type BufferWithLength struct {
	BufferParam int
	LengthParam int
	Mode        Direction
}

type StringWithLength struct {
	StringParam int
	LengthParam int
}

type CallbackParameter struct {
	ParamIndex int
}

type UserdataParameter struct {
	ParamIndex int
}

func (CreateFunction) irPattern()    {}
func (DestroyFunction) irPattern()   {}
func (OutParameter) irPattern()      {}
func (BufferWithLength) irPattern()  {}
func (StringWithLength) irPattern()  {}
func (CallbackParameter) irPattern() {}
func (UserdataParameter) irPattern() {}

func (CreateFunction) Kind() PatternKind    { return PatternCreateFunction }
func (DestroyFunction) Kind() PatternKind   { return PatternDestroyFunction }
func (OutParameter) Kind() PatternKind      { return PatternOutParameter }
func (BufferWithLength) Kind() PatternKind  { return PatternBufferWithLength }
func (StringWithLength) Kind() PatternKind  { return PatternStringWithLength }
func (CallbackParameter) Kind() PatternKind { return PatternCallbackParameter }
func (UserdataParameter) Kind() PatternKind { return PatternUserdataParameter }

func (p CreateFunction) Key() string { return p.ResourceType }
func (p DestroyFunction) Key() string {
	return strconv.Itoa(p.ParamIndex) + ":" + p.ResourceType
}
func (p OutParameter) Key() string      { return strconv.Itoa(p.ParamIndex) }
func (p BufferWithLength) Key() string  { return strconv.Itoa(p.BufferParam) }
func (p StringWithLength) Key() string  { return strconv.Itoa(p.StringParam) }
func (p CallbackParameter) Key() string { return strconv.Itoa(p.ParamIndex) }
func (p UserdataParameter) Key() string { return strconv.Itoa(p.ParamIndex) }

// ErrorConvention is how a function reports failure.
type ErrorConvention string

const (
	ErrorNone        ErrorConvention = ""
	ErrorNonzero     ErrorConvention = "nonzero-is-error"
	ErrorNegative    ErrorConvention = "neg-is-error"
	ErrorNullPointer ErrorConvention = "null-is-error"
)

// Semantics holds the scalar annotations set by inference. Each field is
// written at most once; see Function.SetErrorConvention and SetFreedBy.
type Semantics struct {
	ErrorConvention ErrorConvention
	ReturnsOwned    bool
	FreedBy         string
	// ConsumesParams lists parameter indices whose ownership moves to the
	// callee, in ascending order.
	ConsumesParams []int
}
