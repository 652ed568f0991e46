package environment

// DefaultMaxHeadingSpan bounds how far a heading paragraph may run.
const DefaultMaxHeadingSpan = 2000

// Engine applies a set of descriptors to a document.
type Engine struct {
	descriptors    []Descriptor
	legacy         bool
	maxHeadingSpan int
}

// NewEngine creates an Engine. Descriptors are ordered by priority so more
// specific aliases claim a block before generic ones. legacy enables the
// marker based pass.
func NewEngine(ds []Descriptor, legacy bool, maxHeadingSpan int) *Engine {
	return &Engine{
		descriptors:    Sorted(ds),
		legacy:         legacy,
		maxHeadingSpan: maxHeadingSpan,
	}
}

// Descriptors returns the descriptors in the order they are applied.
func (e *Engine) Descriptors() []Descriptor {
	return append([]Descriptor(nil), e.descriptors...)
}

// Apply runs the quote pass for every descriptor, then the heading pass for
// descriptors with extra arguments, then the marker pass when enabled.
func (e *Engine) Apply(text string) (string, error) {
	if len(e.descriptors) == 0 {
		return text, nil
	}

	var err error
	for _, d := range e.descriptors {
		if text, err = QuoteToEnvironment(text, d); err != nil {
			return text, err
		}
	}
	for _, d := range e.descriptors {
		if d.HasExtraArgs {
			text = WrapHeadings(text, d, e.maxHeadingSpan)
		}
	}
	if e.legacy {
		text = WrapStack(text, e.descriptors)
	}
	return text, nil
}
