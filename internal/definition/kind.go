package definition

// QuestionType is the stored type string of a question.
type QuestionType string

const (
	TypeLikert         QuestionType = "likert"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeMultiSelect    QuestionType = "multi_select"
	TypeNumeric        QuestionType = "numeric"
)

// Kind is the closed set of question variants the scorer dispatches on.
// Every Kind below NumKinds must have a scoring strategy.
type Kind int

const (
	KindUnknown Kind = iota
	KindLikert
	KindMultipleChoice
	KindMultiSelect
	KindNumeric

	NumKinds
)

func (t QuestionType) Kind() Kind {
	switch t {
	case TypeLikert:
		return KindLikert
	case TypeMultipleChoice:
		return KindMultipleChoice
	case TypeMultiSelect:
		return KindMultiSelect
	case TypeNumeric:
		return KindNumeric
	default:
		return KindUnknown
	}
}

func (t QuestionType) Valid() bool { return t.Kind() != KindUnknown }

// HasOptions reports whether answers are picked from the question's options.
func (k Kind) HasOptions() bool {
	return k == KindLikert || k == KindMultipleChoice || k == KindMultiSelect
}

func (k Kind) String() string {
	switch k {
	case KindLikert:
		return string(TypeLikert)
	case KindMultipleChoice:
		return string(TypeMultipleChoice)
	case KindMultiSelect:
		return string(TypeMultiSelect)
	case KindNumeric:
		return string(TypeNumeric)
	default:
		return "unknown"
	}
}
