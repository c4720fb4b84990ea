package quiz

import (
	"github.com/danielpatrickdp/quiz-calibrator/internal/codec"
	"github.com/danielpatrickdp/quiz-calibrator/internal/condition"
)

// Each record keeps the members it does not model, so display text and other
// metadata survive a load/save cycle untouched.

type (
	plainDimension Dimension
	plainOption    Option
	plainQuestion  Question
	plainResult    Result
)

func (d *Dimension) UnmarshalJSON(data []byte) error {
	var p plainDimension
	extra, err := codec.DecodeObject(data, &p)
	if err != nil {
		return err
	}
	*d = Dimension(p)
	d.Extra = extra
	return nil
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	return codec.EncodeObject(plainDimension(d), d.Extra)
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var p plainOption
	extra, err := codec.DecodeObject(data, &p)
	if err != nil {
		return err
	}
	*o = Option(p)
	o.Extra = extra
	return nil
}

func (o Option) MarshalJSON() ([]byte, error) {
	if o.Weights == nil {
		o.Weights = map[string]int{}
	}
	return codec.EncodeObject(plainOption(o), o.Extra)
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var p plainQuestion
	extra, err := codec.DecodeObject(data, &p)
	if err != nil {
		return err
	}
	*q = Question(p)
	q.Extra = extra
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	if q.Options == nil {
		q.Options = []Option{}
	}
	return codec.EncodeObject(plainQuestion(q), q.Extra)
}

func (r *Result) UnmarshalJSON(data []byte) error {
	var p plainResult
	extra, err := codec.DecodeObject(data, &p)
	if err != nil {
		return err
	}
	*r = Result(p)
	r.Extra = extra
	return nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Conditions == nil {
		r.Conditions = []condition.Condition{}
	}
	return codec.EncodeObject(plainResult(r), r.Extra)
}
