package nlp

const (
	_CLASSIFICATION_INSTRUCTION = "Few-shot classification, only provide one word answer, no explanation needed."
	_CLASSIFICATION_QUESTION    = "Find the class of this phrase: {{.input}}, based on the previous examples."
	_EXAMPLE_TEMPLATE           = "{{.phrase}}\nClass: {{.class}}"
	_EXAMPLE_SEPARATOR          = "\n\n"

	_INPUT_KEY  = "input"
	_PHRASE_KEY = "phrase"
	_CLASS_KEY  = "class"
)

var _mess_review_samples = []LabeledExample{
	{"The mess food is delicious, and I look forward to every meal.", ALPHA},
	{"I find the mess food to be quite bland and uninspiring.", BETA},
	{"The mess staff is attentive, and they cater to dietary preferences.", ALPHA},
	{"I often skip meals at the mess because the food quality is inconsistent.", BETA},
	{"The variety of options in the mess menu is impressive.", ALPHA},
	{"I'm disappointed with the lack of vegetarian options in the mess.", BETA},
	{"The mess provides a convenient and affordable dining option.", ALPHA},
	{"The mess food is not worth the money; I'd rather eat elsewhere.", BETA},
	{"I appreciate the effort the mess puts into themed dinners.", ALPHA},
	{"The mess cleanliness standards need improvement.", BETA},
	{"The mess desserts are a delightful way to end the meal.", ALPHA},
	{"The mess food makes me feel sick; I avoid it whenever I can.", BETA},
	{"The mess accommodates special dietary needs well.", ALPHA},
	{"The mess food is repetitive, and I get tired of eating the same things.", BETA},
	{"The mess atmosphere is lively and encourages socializing.", ALPHA},
	{"The mess food lacks freshness; it tastes like leftovers.", BETA},
	{"The mess timings are convenient for my schedule.", ALPHA},
	{"I've had multiple instances of finding foreign objects in the mess food.", BETA},
	{"The mess food caters to a diverse range of tastes.", ALPHA},
	{"The mess portion sizes are too small; I'm often left hungry.", BETA},
	{"I enjoy the cultural diversity reflected in the mess cuisine.", ALPHA},
	{"The mess food is overpriced for its quality.", BETA},
	{"The mess hygiene standards are commendable.", ALPHA},
	{"The mess food lacks nutritional value.", BETA},
	{"The mess offers a good balance between healthy and indulgent options.", ALPHA},
	{"I can't stand the taste of the mess food; it's unbearable.", BETA},
	{"The mess takes feedback seriously and makes improvements.", ALPHA},
	{"The mess service is slow, and I don't have time to wait.", BETA},
	{"The mess caters to different dietary preferences, including jain options.", ALPHA},
	{"The mess food is too oily; it affects my health negatively.", BETA},
}

// DefaultExamples returns a copy of the built-in mess review examples in their fixed order.
func DefaultExamples() []LabeledExample {
	return append([]LabeledExample{}, _mess_review_samples...)
}
