package condition

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid reports a condition that cannot be compiled.
var ErrInvalid = errors.New("invalid condition")

// Kind is the type tag of a condition record.
type Kind string

// Condition kinds. KindRange is the legacy untagged shape.
const (
	KindRange         Kind = ""
	KindMin           Kind = "min"
	KindMaxLE         Kind = "max_le"
	KindMaxGE         Kind = "max_ge"
	KindDiffGreater   Kind = "diff_greater"
	KindDiffAbsLTE    Kind = "diff_abs_lte"
	KindTopIs         Kind = "top_is"
	KindNotTopIs      Kind = "not_top_is"
	KindRankIs        Kind = "rank_is"
	KindTopDiffGTE    Kind = "top_diff_gte"
	KindTopDiffLTE    Kind = "top_diff_lte"
	KindTotalMin      Kind = "total_min"
	KindTotalMax      Kind = "total_max"
	KindSumMin        Kind = "sum_min"
	KindSumMax        Kind = "sum_max"
	KindSpreadBetween Kind = "spread_between"
)

// Numeric field names.
const (
	FieldValue = "value"
	FieldMin   = "min"
	FieldMax   = "max"
	FieldRank  = "rank"
)

// Ref is a bit set of dimension references a kind requires.
type Ref uint8

const (
	RefDim  Ref = 1 << iota // dim
	RefPair                 // a and b
	RefDims                 // dims (may be empty)
)

// Range is an inclusive integer interval.
type Range struct {
	Lo, Hi int
}

// Clamp restricts v to r.
func (r Range) Clamp(v int) int {
	return max(r.Lo, min(r.Hi, v))
}

// #region table
// Descriptor declares one kind: its references, its numeric fields and the
// legal range of each field. Semantics live in Eval, keyed by the same Kind.
type Descriptor struct {
	Kind   Kind
	Refs   Ref
	Fields map[string]Range
}

var (
	scoreRange  = Range{-20, 20}
	gapRange    = Range{0, 20}
	totalRange  = Range{0, 160}
	subsetRange = Range{-160, 160}
	spreadRange = Range{0, 40}
	looseRange  = Range{-20, 160}
)

var table = map[Kind]Descriptor{
	KindRange:         {KindRange, RefDim, map[string]Range{FieldMin: scoreRange, FieldMax: scoreRange, FieldValue: looseRange}},
	KindMin:           {KindMin, RefDim, map[string]Range{FieldValue: scoreRange}},
	KindMaxLE:         {KindMaxLE, RefDim, map[string]Range{FieldValue: scoreRange}},
	KindMaxGE:         {KindMaxGE, RefDim, map[string]Range{FieldValue: scoreRange}},
	KindDiffGreater:   {KindDiffGreater, RefPair, map[string]Range{FieldValue: scoreRange}},
	KindDiffAbsLTE:    {KindDiffAbsLTE, RefPair, map[string]Range{FieldValue: gapRange}},
	KindTopIs:         {KindTopIs, RefDim, nil},
	KindNotTopIs:      {KindNotTopIs, RefDim, nil},
	KindRankIs:        {KindRankIs, RefDim, nil},
	KindTopDiffGTE:    {KindTopDiffGTE, 0, map[string]Range{FieldValue: gapRange}},
	KindTopDiffLTE:    {KindTopDiffLTE, 0, map[string]Range{FieldValue: gapRange}},
	KindTotalMin:      {KindTotalMin, 0, map[string]Range{FieldValue: totalRange}},
	KindTotalMax:      {KindTotalMax, 0, map[string]Range{FieldValue: totalRange}},
	KindSumMin:        {KindSumMin, RefDims, map[string]Range{FieldValue: subsetRange}},
	KindSumMax:        {KindSumMax, RefDims, map[string]Range{FieldValue: subsetRange}},
	KindSpreadBetween: {KindSpreadBetween, 0, map[string]Range{FieldMin: spreadRange, FieldMax: spreadRange}},
}

// #endregion table

// Lookup returns the descriptor for kind.
func Lookup(kind Kind) (Descriptor, bool) {
	d, ok := table[kind]
	return d, ok
}

// Kinds lists every declared kind in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(table))
	for k := range table {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Bounds returns the legal range of a numeric field of kind. Fields a kind
// does not declare fall back to the widest range a score quantity can take.
func Bounds(kind Kind, field string) Range {
	if d, ok := table[kind]; ok {
		if r, ok := d.Fields[field]; ok {
			return r
		}
	}
	if field == FieldMin || field == FieldMax {
		return scoreRange
	}
	return looseRange
}

// Tunable reports the numeric fields of c that are present and declared by its kind,
// in the order min, max, value.
func (c *Condition) Tunable() []string {
	d, ok := table[Kind(c.Type)]
	if !ok {
		return nil
	}
	var out []string
	for _, f := range []string{FieldMin, FieldMax, FieldValue} {
		if _, declared := d.Fields[f]; !declared {
			continue
		}
		if _, present := c.Field(f); present {
			out = append(out, f)
		}
	}
	return out
}

// #region compile
// Op is an integer comparison.
type Op uint8

const (
	OpGE Op = iota
	OpGT
	OpLE
	OpLT
	OpEQ
)

func (o Op) String() string {
	switch o {
	case OpGT:
		return ">"
	case OpLE:
		return "<="
	case OpLT:
		return "<"
	case OpEQ:
		return "="
	}
	return ">="
}

// ParseOp maps a legacy comparator name to an Op. Anything unrecognized compares with >=.
func ParseOp(name string) Op {
	switch name {
	case "gt":
		return OpGT
	case "lt":
		return OpLT
	case "lte":
		return OpLE
	case "eq":
		return OpEQ
	}
	return OpGE
}

// Compiled is a condition with dimension names resolved to indexes and
// defaults applied.
type Compiled struct {
	Kind   Kind
	Dim    int
	A, B   int
	Dims   []int
	Op     Op
	Value  int
	Min    int
	Max    int
	HasMin bool
	HasMax bool
	Rank   int
}

// Compile resolves c against the dimension index of a questionnaire.
func Compile(c Condition, dimIndex map[string]int) (Compiled, error) {
	kind := Kind(c.Type)
	if kind == KindRange && c.Dim == "" {
		return Compiled{}, fmt.Errorf("%w: untagged condition without dim", ErrInvalid)
	}
	desc, ok := table[kind]
	if !ok {
		return Compiled{}, fmt.Errorf("%w: unknown type %q", ErrInvalid, c.Type)
	}

	out := Compiled{Kind: kind, Dim: -1, A: -1, B: -1}
	resolve := func(field, name string) (int, error) {
		if name == "" {
			return 0, fmt.Errorf("%w: %s requires %s", ErrInvalid, kindName(kind), field)
		}
		i, ok := dimIndex[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s references undeclared dimension %q", ErrInvalid, kindName(kind), name)
		}
		return i, nil
	}
	var err error
	if desc.Refs&RefDim != 0 {
		if out.Dim, err = resolve("dim", c.Dim); err != nil {
			return Compiled{}, err
		}
	}
	if desc.Refs&RefPair != 0 {
		if out.A, err = resolve("a", c.A); err != nil {
			return Compiled{}, err
		}
		if out.B, err = resolve("b", c.B); err != nil {
			return Compiled{}, err
		}
	}
	if desc.Refs&RefDims != 0 {
		out.Dims = make([]int, 0, len(c.Dims))
		for _, name := range c.Dims {
			i, err := resolve("dims", name)
			if err != nil {
				return Compiled{}, err
			}
			out.Dims = append(out.Dims, i)
		}
	}

	out.Value, _ = c.Field(FieldValue)
	out.Min, out.HasMin = c.Field(FieldMin)
	out.Max, out.HasMax = c.Field(FieldMax)
	switch kind {
	case KindRange:
		out.Op = ParseOp(c.Op)
	case KindSpreadBetween:
		if !out.HasMin {
			out.Min, out.HasMin = 0, true
		}
		if !out.HasMax {
			out.Max, out.HasMax = 999, true
		}
	case KindRankIs:
		out.Rank, _ = c.Field(FieldRank)
		out.Rank = max(1, out.Rank)
	}
	return out, nil
}

// CompileAll compiles a condition list, reporting the index of the first failure.
func CompileAll(conds []Condition, dimIndex map[string]int) ([]Compiled, error) {
	out := make([]Compiled, len(conds))
	for i, c := range conds {
		cc, err := Compile(c, dimIndex)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out[i] = cc
	}
	return out, nil
}

func kindName(k Kind) string {
	if k == KindRange {
		return "range"
	}
	return string(k)
}

// #endregion compile
