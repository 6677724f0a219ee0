package catalog

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/kuzowebsite/ider-surver/model"
	"github.com/pkg/errors"
)

var validate = validator.New()

var reOptionIndex = regexp.MustCompile(`Options\[(\d+)\]`)

// ValidationError lists every problem found in a question or catalog.
type ValidationError struct {
	Problems *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.Problems.Error()
}

func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Problems.Errors))
	for i, err := range e.Problems.Errors {
		msgs[i] = err.Error()
	}
	return msgs
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Validate checks a single question: non-empty text, a known response
// mode, at least one option, and non-empty option texts with unique
// positive ids.
func Validate(q model.Question) error {
	problems := questionProblems(q)
	if problems == nil {
		return nil
	}
	return &ValidationError{problems}
}

// ValidateCatalog checks every question plus catalog-wide id uniqueness.
func ValidateCatalog(questions []model.Question) error {
	var problems *multierror.Error

	seen := make(map[int]bool, len(questions))
	for i, q := range questions {
		if seen[q.ID] {
			problems = multierror.Append(problems, fmt.Errorf("question #%d: id %d is used twice", i+1, q.ID))
		}
		seen[q.ID] = true

		if p := questionProblems(q); p != nil {
			for _, err := range p.Errors {
				problems = multierror.Append(problems, fmt.Errorf("question #%d: %w", i+1, err))
			}
		}
	}

	if problems == nil {
		return nil
	}
	return &ValidationError{problems}
}

func questionProblems(q model.Question) *multierror.Error {
	var problems *multierror.Error

	err := validate.Struct(q)
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		for _, fe := range fieldErrs {
			problems = multierror.Append(problems, describe(fe))
		}
	case err != nil:
		problems = multierror.Append(problems, err)
	}

	if q.AllowCustom {
		if _, taken := q.Option(q.CustomID()); taken {
			problems = multierror.Append(problems, fmt.Errorf("custom option id %d is used by a regular option", q.CustomID()))
		}
	}
	return problems
}

func describe(fe validator.FieldError) error {
	option := ""
	if m := reOptionIndex.FindStringSubmatch(fe.Namespace()); m != nil {
		n, _ := strconv.Atoi(m[1])
		option = fmt.Sprintf("option #%d", n+1)
	}

	switch {
	case option != "" && fe.Field() == "Text":
		return fmt.Errorf("%s: text must not be empty", option)
	case option != "" && fe.Field() == "ID":
		return fmt.Errorf("%s: id must be positive", option)
	case fe.Field() == "Text":
		return errors.New("question text must not be empty")
	case fe.Field() == "ID":
		return errors.New("question id must be positive")
	case fe.Field() == "Type":
		return fmt.Errorf("response mode %q must be %q or %q", fe.Value(), model.Single, model.Multiple)
	case fe.Field() == "Options" && fe.Tag() == "unique":
		return errors.New("option ids must be unique")
	case fe.Field() == "Options":
		return errors.New("a question needs at least one option")
	}
	return fmt.Errorf("%s failed on %s", fe.Namespace(), fe.Tag())
}
