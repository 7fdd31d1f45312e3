package domain

import (
	"reflect"
	"sort"
	"strings"
)

// Evaluate decides whether user matches correct for the given question
// type. An unanswered question (nil user) is never correct. The
// comparison is insensitive to multi-select ordering and matching key
// order, and fill-blank text is compared case- and
// whitespace-insensitively. Matching is all-or-nothing here; per-pair
// outcomes are a review concern, not a scoring one.
func Evaluate(qt QuestionType, user, correct *AnswerValue) bool {
	if user == nil || correct == nil {
		return false
	}

	switch qt {
	case TrueFalse, SingleSelect:
		if user.Kind != KindSelected || correct.Kind != KindSelected {
			return false
		}
		return user.Selected == correct.Selected

	case MultiSelect:
		if user.Kind != KindSelection || correct.Kind != KindSelection {
			return false
		}
		return equalSelections(user.Selection, correct.Selection)

	case Matching:
		if user.Kind != KindPairs || correct.Kind != KindPairs {
			return false
		}
		return equalPairs(user.Pairs, correct.Pairs)

	case FillBlank:
		if user.Kind != KindText || correct.Kind != KindText {
			return false
		}
		return normalizeText(user.Text) == normalizeText(correct.Text)

	default:
		// Safety net for unrecognized types; unreachable for the five defined ones.
		return reflect.DeepEqual(user, correct)
	}
}

func equalSelections(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]int(nil), a...)
	bs := append([]int(nil), b...)
	sort.Ints(as)
	sort.Ints(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func equalPairs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		right, ok := b[k]
		if !ok || right != a[k] {
			return false
		}
	}
	return true
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MatchesShape reports whether value is a well-formed answer for the
// question type. Used to reject malformed writes before they reach the
// draft store; a nil value (clearing a slot) always passes.
func MatchesShape(qt QuestionType, value *AnswerValue) bool {
	if value == nil {
		return true
	}
	switch qt {
	case TrueFalse, SingleSelect:
		return value.Kind == KindSelected
	case MultiSelect:
		return value.Kind == KindSelection
	case Matching:
		return value.Kind == KindPairs
	case FillBlank:
		return value.Kind == KindText
	default:
		return false
	}
}
