package rules

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Entity is a field-addressable evidence record. Implementations live with
// the record types (SOPs, certifications, CAPAs, checklist submissions,
// audit responses).
type Entity interface {
	// EntityID returns the record's stable identity.
	EntityID() string
	// Label returns a human-readable name for operator-facing detail text.
	Label() string
	// Field resolves a dotted field path to its value. The second return
	// is false when the path does not exist on this record.
	Field(path string) (interface{}, bool)
}

// Outcome is the result of evaluating a condition against one record.
type Outcome int

const (
	OutcomePass Outcome = iota
	OutcomeFail
	// OutcomeNotApplicable means the condition could not be meaningfully
	// applied (missing field, coercion failure, absent date). Never a
	// silent pass.
	OutcomeNotApplicable
	// OutcomeSkipped means the record did not match the condition's filter
	// and is excluded from the rule's denominator entirely.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomePass:
		return "pass"
	case OutcomeFail:
		return "fail"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Evaluation carries the per-record outcome plus a diagnostic note for
// anything that was not a clean pass/fail.
type Evaluation struct {
	Outcome Outcome
	Note    string
}

// Evaluator interprets rule conditions against single records. The clock is
// injectable so date-relative operators are deterministic under test.
type Evaluator struct {
	clock func() time.Time
}

// NewEvaluator creates an evaluator using the system clock.
func NewEvaluator() *Evaluator {
	return &Evaluator{clock: time.Now}
}

// WithClock overrides the clock for testing.
func (e *Evaluator) WithClock(clock func() time.Time) *Evaluator {
	e.clock = clock
	return e
}

// Evaluate applies a condition to one record.
func (e *Evaluator) Evaluate(cond Condition, entity Entity) Evaluation {
	if cond.Filter != nil {
		fv, ok := entity.Field(cond.Filter.Field)
		if !ok || !looselyEqual(fv, cond.Filter.Equals) {
			return Evaluation{Outcome: OutcomeSkipped}
		}
	}

	value, ok := entity.Field(cond.Field)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("field %q not present on %s", cond.Field, entity.EntityID()),
		}
	}

	switch cond.Operator {
	case OpEquals:
		if looselyEqual(value, cond.Value) {
			return Evaluation{Outcome: OutcomePass}
		}
		return Evaluation{Outcome: OutcomeFail}

	case OpGte, OpLte, OpGt, OpLt:
		return e.compareNumeric(cond, value)

	case OpOlderThanDays, OpWithinDays:
		return e.compareDays(cond, value)

	case OpNotExpired, OpNotPastDue:
		return e.compareDateNotPast(cond, value)

	default:
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("unknown operator %q", cond.Operator),
		}
	}
}

func (e *Evaluator) compareNumeric(cond Condition, value interface{}) Evaluation {
	left, ok := coerceDecimal(value)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("field %q value %v is not numeric", cond.Field, value),
		}
	}
	right, ok := coerceDecimal(cond.Value)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("comparison value %v is not numeric", cond.Value),
		}
	}

	var pass bool
	switch cond.Operator {
	case OpGte:
		pass = left.GreaterThanOrEqual(right)
	case OpLte:
		pass = left.LessThanOrEqual(right)
	case OpGt:
		pass = left.GreaterThan(right)
	case OpLt:
		pass = left.LessThan(right)
	}
	if pass {
		return Evaluation{Outcome: OutcomePass}
	}
	return Evaluation{Outcome: OutcomeFail}
}

func (e *Evaluator) compareDays(cond Condition, value interface{}) Evaluation {
	date, ok := coerceDate(value)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("field %q has no usable date", cond.Field),
		}
	}
	days, ok := coerceDecimal(cond.Value)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("comparison value %v is not a day count", cond.Value),
		}
	}

	age := e.clock().UTC().Sub(date.UTC())
	ageDays := decimal.NewFromFloat(age.Hours() / 24)

	var pass bool
	switch cond.Operator {
	case OpOlderThanDays:
		pass = ageDays.GreaterThan(days)
	case OpWithinDays:
		pass = ageDays.LessThanOrEqual(days) && !ageDays.IsNegative()
	}
	if pass {
		return Evaluation{Outcome: OutcomePass}
	}
	return Evaluation{Outcome: OutcomeFail}
}

// compareDateNotPast handles not_expired / not_past_due: the date field must
// be today or later, with an inclusive boundary at "today" in UTC.
func (e *Evaluator) compareDateNotPast(cond Condition, value interface{}) Evaluation {
	date, ok := coerceDate(value)
	if !ok {
		return Evaluation{
			Outcome: OutcomeNotApplicable,
			Note:    fmt.Sprintf("field %q has no usable date", cond.Field),
		}
	}

	today := truncateToDay(e.clock().UTC())
	if truncateToDay(date.UTC()).Before(today) {
		return Evaluation{Outcome: OutcomeFail}
	}
	return Evaluation{Outcome: OutcomePass}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// looselyEqual compares two values numerically when both sides coerce to
// decimals, otherwise by string form.
func looselyEqual(a, b interface{}) bool {
	da, okA := coerceDecimal(a)
	db, okB := coerceDecimal(b)
	if okA && okB {
		return da.Equal(db)
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func coerceDecimal(v interface{}) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case float64:
		return decimal.NewFromFloat(x), true
	case string:
		d, err := decimal.NewFromString(x)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

func coerceDate(v interface{}) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
