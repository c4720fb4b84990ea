package quiz

import "fmt"

// Validate rejects a questionnaire that cannot be evaluated. Every failure
// wraps ErrMalformedInput.
func (q *Questionnaire) Validate() error {
	if len(q.Dimensions) == 0 {
		return fmt.Errorf("%w: no dimensions", ErrMalformedInput)
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrMalformedInput)
	}
	if len(q.Results) == 0 {
		return fmt.Errorf("%w: no results", ErrMalformedInput)
	}

	seen := make(map[string]bool, len(q.Dimensions))
	for i, d := range q.Dimensions {
		if d.ID == "" {
			return fmt.Errorf("%w: dimension %d has no id", ErrMalformedInput, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate dimension %q", ErrMalformedInput, d.ID)
		}
		seen[d.ID] = true
	}

	for i, qu := range q.Questions {
		if len(qu.Options) == 0 {
			return fmt.Errorf("%w: question %d has no options", ErrMalformedInput, i+1)
		}
	}

	ids := make(map[string]bool, len(q.Results))
	for _, r := range q.Results {
		if r.ID == "" {
			return fmt.Errorf("%w: result without id", ErrMalformedInput)
		}
		if ids[r.ID] {
			return fmt.Errorf("%w: duplicate result %q", ErrMalformedInput, r.ID)
		}
		ids[r.ID] = true
	}
	if _, err := q.Compile(); err != nil {
		return err
	}

	fb := q.ResultIndex(q.Fallback)
	if fb < 0 {
		return fmt.Errorf("%w: no fallback result", ErrMalformedInput)
	}
	for i, r := range q.Results {
		if i != fb && r.Priority <= q.Results[fb].Priority {
			return fmt.Errorf("%w: fallback %q priority %d is not below %q priority %d",
				ErrMalformedInput, q.Fallback, q.Results[fb].Priority, r.ID, r.Priority)
		}
	}
	return nil
}

// DetectFallback picks the lowest-priority result with no conditions, ties
// going to the earliest. It returns "" when no result is unconditional.
func (q *Questionnaire) DetectFallback() string {
	best := -1
	for i, r := range q.Results {
		if len(r.Conditions) != 0 {
			continue
		}
		if best < 0 || r.Priority < q.Results[best].Priority {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return q.Results[best].ID
}
