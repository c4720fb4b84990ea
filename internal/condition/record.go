package condition

import (
	"slices"

	json "github.com/goccy/go-json"

	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
)

// #region record
// Condition is one predicate record as stored in results.json. Type is empty
// for the legacy range shape, which is identified by Dim alone. Pointer fields
// keep presence: a legacy {dim, min} range is open above, {dim, min, max} is closed.
type Condition struct {
	Type  string      `json:"type,omitempty"`
	Dim   string      `json:"dim,omitempty"`
	A     string      `json:"a,omitempty"`
	B     string      `json:"b,omitempty"`
	Dims  []string    `json:"dims,omitempty"`
	Op    string      `json:"op,omitempty"`
	Value *int        `json:"value,omitempty"`
	Min   *int        `json:"min,omitempty"`
	Max   *int        `json:"max,omitempty"`
	Rank  *int        `json:"rank,omitempty"`
	Extra codec.Extra `json:"-"`
}

// Int returns a pointer to v, for building conditions in code.
func Int(v int) *int {
	return &v
}

// Field returns the numeric field named key ("value", "min", "max" or "rank").
func (c *Condition) Field(key string) (int, bool) {
	p := c.fieldPtr(key)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// SetField writes a numeric field, adding it when absent.
func (c *Condition) SetField(key string, v int) {
	if p := c.fieldPtr(key); p != nil {
		*p = Int(v)
	}
}

func (c *Condition) fieldPtr(key string) **int {
	switch key {
	case FieldValue:
		return &c.Value
	case FieldMin:
		return &c.Min
	case FieldMax:
		return &c.Max
	case FieldRank:
		return &c.Rank
	}
	return nil
}

// Clone returns a deep copy.
func (c Condition) Clone() Condition {
	out := c
	out.Dims = slices.Clone(c.Dims)
	out.Value = clonePtr(c.Value)
	out.Min = clonePtr(c.Min)
	out.Max = clonePtr(c.Max)
	out.Rank = clonePtr(c.Rank)
	if c.Extra != nil {
		out.Extra = make(codec.Extra, len(c.Extra))
		for k, v := range c.Extra {
			out.Extra[k] = slices.Clone(v)
		}
	}
	return out
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	return Int(*p)
}

// #endregion record

// #region json
type plainCondition Condition

// UnmarshalJSON keeps unknown members in Extra.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var p plainCondition
	extra, err := codec.DecodeObject(data, &p)
	if err != nil {
		return err
	}
	*c = Condition(p)
	c.Extra = extra
	return nil
}

// MarshalJSON writes declared members followed by Extra.
func (c Condition) MarshalJSON() ([]byte, error) {
	return codec.EncodeObject(plainCondition(c), c.Extra)
}

var _ json.Marshaler = Condition{}

// #endregion json
