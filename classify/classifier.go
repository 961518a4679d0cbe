package classify

// Classifier is a total function from an observed error to a Classification.
// Implementations must never panic; a Classifier that cannot recognize an
// error should fall back to Recoverable rather than guessing Fatal.
type Classifier interface {
	Classify(err error) Classification
}

// Func adapts a plain function to a Classifier.
type Func func(err error) Classification

// Classify implements Classifier.
func (f Func) Classify(err error) Classification {
	if f == nil {
		return Recoverable
	}
	return f(err)
}

// Default is the classifier used when a RetryPolicy does not specify one.
// Every error is Recoverable; callers that need Fatal short-circuiting
// must supply their own Classifier.
var Default Classifier = Func(func(error) Classification {
	return Recoverable
})

// mapClassifier implements a partial mapping from error to Classification,
// keyed by errors.Is-style matching, falling back to Recoverable.
type mapClassifier struct {
	matchers []matcher
}

type matcher struct {
	match func(error) bool
	class Classification
}

// FromMatchers builds a Classifier out of an ordered list of predicates.
// The first matcher whose predicate returns true wins; an error matching
// none of them classifies as Recoverable. Entries with a nil Match are
// skipped.
func FromMatchers(entries ...struct {
	Match func(error) bool
	Class Classification
}) Classifier {
	mc := &mapClassifier{}
	for _, e := range entries {
		if e.Match == nil {
			continue
		}
		mc.matchers = append(mc.matchers, matcher{match: e.Match, class: e.Class})
	}
	return mc
}

func (m *mapClassifier) Classify(err error) Classification {
	if err == nil {
		return Recoverable
	}
	for _, mm := range m.matchers {
		if mm.match(err) {
			return mm.class
		}
	}
	return Recoverable
}

// Chain returns a Classifier that tries each classifier in order and
// returns the first non-Recoverable result; if every classifier returns
// Recoverable (including the degenerate case of an empty chain), the
// chain itself returns Recoverable. This lets several narrow classifiers
// (e.g. an HTTP one and a gRPC one) cover one policy without the caller
// writing a dispatch function by hand.
func Chain(classifiers ...Classifier) Classifier {
	cs := make([]Classifier, 0, len(classifiers))
	for _, c := range classifiers {
		if c != nil {
			cs = append(cs, c)
		}
	}
	return Func(func(err error) Classification {
		for _, c := range cs {
			if cls := c.Classify(err); cls != Recoverable {
				return cls
			}
		}
		return Recoverable
	})
}
