package flow

import (
	"regexp"
	"sort"
	"strings"

	"leadfunnel/internal/model"
)

var specifyPattern = regexp.MustCompile(`(?i)\bother\b|please specify`)

// RequiresSpecification reports whether choosing option needs elaboration text
func RequiresSpecification(option string) bool {
	return specifyPattern.MatchString(option)
}

// Elaborate joins an option label and its elaboration text
func Elaborate(option, text string) string {
	return option + ": " + text
}

// errNeedsElaboration is returned by normalize when a chosen option still needs text.
// option names the choice that is waiting.
type errNeedsElaboration struct {
	option string
}

func (e *errNeedsElaboration) Error() string {
	return "elaboration required for " + e.option
}

// normalize turns raw input into a stored answer for q. An empty optional
// free-text answer yields a zero Answer and no error.
func normalize(q model.Question, in model.AnswerInput) (model.Answer, error) {
	elaboration := strings.TrimSpace(in.Elaboration)

	switch q.Kind {
	case model.KindSingleChoice:
		if in.Choice == "" {
			return model.Answer{}, invalid("choice", "select an option")
		}
		if q.OptionIndex(in.Choice) < 0 {
			return model.Answer{}, invalid("choice", "unknown option")
		}
		if !RequiresSpecification(in.Choice) {
			return model.Answer{Text: in.Choice}, nil
		}
		if elaboration == "" {
			return model.Answer{}, &errNeedsElaboration{option: in.Choice}
		}
		return model.Answer{Text: Elaborate(in.Choice, elaboration)}, nil

	case model.KindMultiChoice:
		if len(in.Choices) == 0 {
			return model.Answer{}, invalid("choices", "select at least one option")
		}
		seen := make(map[string]bool, len(in.Choices))
		picked := make([]string, 0, len(in.Choices))
		for _, c := range in.Choices {
			if q.OptionIndex(c) < 0 {
				return model.Answer{}, invalid("choices", "unknown option "+c)
			}
			if !seen[c] {
				seen[c] = true
				picked = append(picked, c)
			}
		}
		sort.Slice(picked, func(i, j int) bool {
			return q.OptionIndex(picked[i]) < q.OptionIndex(picked[j])
		})
		for i, c := range picked {
			if !RequiresSpecification(c) {
				continue
			}
			if elaboration == "" {
				return model.Answer{}, &errNeedsElaboration{option: c}
			}
			picked[i] = Elaborate(c, elaboration)
		}
		return model.Answer{Choices: picked}, nil

	case model.KindFreeText:
		text := strings.TrimSpace(in.Text)
		if text == "" {
			if q.Optional {
				return model.Answer{}, nil
			}
			return model.Answer{}, invalid("text", "answer required")
		}
		return model.Answer{Text: text}, nil

	case model.KindScale:
		if in.Scale < model.ScaleMin || in.Scale > model.ScaleMax {
			return model.Answer{}, invalid("scale", "must be between 1 and 10")
		}
		return model.Answer{Scale: in.Scale}, nil
	}

	return model.Answer{}, invalid("kind", "unsupported question kind "+string(q.Kind))
}

// checkShape verifies a stored answer against its question kind
func checkShape(q model.Question, v model.Answer) error {
	switch q.Kind {
	case model.KindSingleChoice:
		if !validOption(q, v.Text) {
			return invalid(q.ID, "not one of the options")
		}
	case model.KindMultiChoice:
		if len(v.Choices) == 0 {
			return invalid(q.ID, "empty selection")
		}
		seen := make(map[string]bool, len(v.Choices))
		for _, c := range v.Choices {
			if seen[c] || !validOption(q, c) {
				return invalid(q.ID, "invalid selection "+c)
			}
			seen[c] = true
		}
	case model.KindFreeText:
		if strings.TrimSpace(v.Text) == "" {
			return invalid(q.ID, "empty text")
		}
	case model.KindScale:
		if v.Scale < model.ScaleMin || v.Scale > model.ScaleMax {
			return invalid(q.ID, "scale out of range")
		}
	}
	return nil
}

func validOption(q model.Question, value string) bool {
	if q.OptionIndex(value) >= 0 {
		return !RequiresSpecification(value)
	}
	for _, o := range q.Options {
		if RequiresSpecification(o) && strings.HasPrefix(value, o+": ") && len(value) > len(o)+2 {
			return true
		}
	}
	return false
}
