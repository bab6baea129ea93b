package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// fieldColumns maps struct field names to the column names users see.
var fieldColumns = map[string]string{
	"Name":         ColName,
	"Track":        ColTrack,
	"Subject":      ColSubject,
	"Rank":         ColRank,
	"Percentage":   ColPercentage,
	"Marks":        ColMarks,
	"AverageMarks": ColAverageMarks,
	"HighestMark":  ColHighestMark,
}

// Validator normalizes raw field maps into records.
//
// The permissive policy mirrors what users have always been able to enter:
// marks above the highest mark and percentages outside [0,100] are kept.
// The strict policy rejects them with a RangeError.
type Validator struct {
	Strict bool
	v      *validator.Validate
}

// NewValidator returns a Validator for the given policy.
func NewValidator(strict bool) *Validator {
	v := validator.New()
	if strict {
		v.RegisterStructValidation(strictRules, PerformanceRecord{})
	}
	return &Validator{Strict: strict, v: v}
}

var defaultValidator = NewValidator(false)

// FromFields normalizes fields with the permissive policy.
func FromFields(fields map[string]string) (PerformanceRecord, error) {
	return defaultValidator.FromFields(fields)
}

// FromFields builds a record from column name -> raw text. Required columns must be
// non-blank. Non-numeric numbers fall back to 0; a missing or non-numeric percentage
// is derived from marks and highest mark.
func (v *Validator) FromFields(fields map[string]string) (PerformanceRecord, error) {
	get := func(col string) string { return strings.TrimSpace(fields[col]) }
	for _, col := range RequiredColumns {
		if get(col) == "" {
			return PerformanceRecord{}, &FieldError{Field: col}
		}
	}
	num := func(col string) float64 {
		f, _ := ParseNumber(get(col))
		return f
	}
	marks := num(ColMarks)
	highest := num(ColHighestMark)
	pct, ok := ParseNumber(get(ColPercentage))
	if !ok {
		pct = DerivePercentage(marks, highest)
	}
	r := PerformanceRecord{
		Name:         get(ColName),
		Track:        ParseTrack(get(ColTrack)),
		Month:        get(ColMonth),
		Date:         get(ColDate),
		Subject:      get(ColSubject),
		Topic:        get(ColTopic),
		Rank:         int(num(ColRank)),
		Percentage:   pct,
		Marks:        marks,
		AverageMarks: num(ColAverageMarks),
		HighestMark:  highest,
		ExamType:     get(ColExamType),
	}
	if err := v.Validate(r); err != nil {
		return PerformanceRecord{}, err
	}
	return r, nil
}

// Validate checks an already-typed record against the policy.
func (v *Validator) Validate(r PerformanceRecord) error {
	err := v.v.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	col := fieldColumns[fe.StructField()]
	if col == "" {
		col = fe.StructField()
	}
	if fe.Tag() == "required" {
		return &FieldError{Field: col}
	}
	return &RangeError{Field: col, Reason: reason(fe)}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%v is not one of %s", fe.Value(), fe.Param())
	case "ltefield":
		return fmt.Sprintf("%v exceeds %s", fe.Value(), fieldColumns[fe.Param()])
	case "gte":
		return fmt.Sprintf("%v is below %s", fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("%v is above %s", fe.Value(), fe.Param())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}

func strictRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(PerformanceRecord)
	if r.Marks < 0 {
		sl.ReportError(r.Marks, "Marks", "Marks", "gte", "0")
	}
	if r.HighestMark < 0 {
		sl.ReportError(r.HighestMark, "HighestMark", "HighestMark", "gte", "0")
	}
	if r.AverageMarks < 0 {
		sl.ReportError(r.AverageMarks, "AverageMarks", "AverageMarks", "gte", "0")
	}
	if r.Rank < 0 {
		sl.ReportError(r.Rank, "Rank", "Rank", "gte", "0")
	}
	if r.Marks > r.HighestMark {
		sl.ReportError(r.Marks, "Marks", "Marks", "ltefield", "HighestMark")
	}
	if r.Percentage < 0 {
		sl.ReportError(r.Percentage, "Percentage", "Percentage", "gte", "0")
	} else if r.Percentage > 100 {
		sl.ReportError(r.Percentage, "Percentage", "Percentage", "lte", "100")
	}
}
