package process

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
	"github.com/cognicore/docdeid/pkg/docdeid/document"
	"github.com/cognicore/docdeid/pkg/docdeid/internalerr"
)

// AnnotationProcessor rewrites the annotation set of a document.
type AnnotationProcessor interface {
	ProcessAnnotations(annos *annotation.Set, text string) (*annotation.Set, error)
}

func replaceAnnotations(doc *document.Document, p AnnotationProcessor) error {
	if doc.Annotations().Len() == 0 {
		return nil
	}
	out, err := p.ProcessAnnotations(doc.Annotations(), doc.Text())
	if err != nil {
		return err
	}
	doc.SetAnnotations(out)
	return nil
}

// OverlapResolver removes overlap by letting annotations claim characters in
// sort order. An annotation whose span is still free is kept; otherwise
// only its free stretches survive, as new annotations with the same tag and
// default priority. Annotations fully covered by earlier ones disappear.
type OverlapResolver struct {
	order annotation.Order
}

// NewOverlapResolver resolves in the given order, with ties broken on all
// remaining fields.
func NewOverlapResolver(order annotation.Order) *OverlapResolver {
	return &OverlapResolver{order: order.Strict()}
}

func (r *OverlapResolver) ProcessAnnotations(annos *annotation.Set, _ string) (*annotation.Set, error) {
	size := 0
	for _, a := range annos.All() {
		size = max(size, a.End())
	}
	taken := make([]bool, size)

	out := annotation.NewSet()
	for _, a := range annos.Sorted(r.order) {
		span := taken[a.Start():a.End()]
		if !slices.Contains(span, true) {
			out.Add(a)
		} else {
			for _, run := range freeRuns(span) {
				s, e := run[0], run[1]
				frag, err := annotation.New(a.Text()[s:e], a.Start()+s, a.Start()+e, a.Tag())
				if err != nil {
					return nil, err
				}
				out.Add(frag)
			}
		}
		for i := range span {
			span[i] = true
		}
	}
	return out, nil
}

func (r *OverlapResolver) Process(doc *document.Document) error { return replaceAnnotations(doc, r) }

// freeRuns returns the [start, end) ranges of consecutive false values.
func freeRuns(taken []bool) [][2]int {
	var runs [][2]int
	start := -1
	for i, t := range taken {
		switch {
		case !t && start < 0:
			start = i
		case t && start >= 0:
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(taken)})
	}
	return runs
}

// MergeAdjacent joins neighbouring annotations with matching tags when the
// text between them is fully matched by the slack expression, or is empty
// when there is none. Merging chains: a merged annotation can merge again
// with its right neighbour.
type MergeAdjacent struct {
	slack        *regexp.Regexp
	checkOverlap bool
	tagsMatch    func(left, right string) bool
	replaceTag   func(left, right string) string
}

// MergeOption configures MergeAdjacent.
type MergeOption func(*MergeAdjacent) error

// WithSlack allows text fully matching expr between merged annotations.
func WithSlack(expr string) MergeOption {
	return func(m *MergeAdjacent) error {
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return fmt.Errorf("compile slack %q: %w", expr, err)
		}
		m.slack = re
		return nil
	}
}

// WithoutOverlapCheck skips the overlap check. Results on overlapping input
// are undefined.
func WithoutOverlapCheck() MergeOption {
	return func(m *MergeAdjacent) error {
		m.checkOverlap = false
		return nil
	}
}

// WithTagMatcher replaces tag equality as the merge condition.
func WithTagMatcher(f func(left, right string) bool) MergeOption {
	return func(m *MergeAdjacent) error {
		m.tagsMatch = f
		return nil
	}
}

// WithTagReplacement chooses the tag of a merged annotation. The default
// keeps the left tag.
func WithTagReplacement(f func(left, right string) string) MergeOption {
	return func(m *MergeAdjacent) error {
		m.replaceTag = f
		return nil
	}
}

// NewMergeAdjacent creates a merger that checks for overlap by default.
func NewMergeAdjacent(opts ...MergeOption) (*MergeAdjacent, error) {
	m := &MergeAdjacent{
		checkOverlap: true,
		tagsMatch:    func(l, r string) bool { return l == r },
		replaceTag:   func(l, _ string) string { return l },
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MergeAdjacent) adjacent(left, right annotation.Annotation, text string) bool {
	if !m.tagsMatch(left.Tag(), right.Tag()) {
		return false
	}
	if left.End() > right.Start() {
		return false
	}
	between := text[left.End():right.Start()]
	if m.slack == nil {
		return between == ""
	}
	return m.slack.MatchString(between)
}

func (m *MergeAdjacent) ProcessAnnotations(annos *annotation.Set, text string) (*annotation.Set, error) {
	if m.checkOverlap && annos.HasOverlap() {
		return nil, fmt.Errorf("%w: cannot merge adjacent annotations", internalerr.ErrOverlap)
	}

	sorted := annos.Sorted(annotation.OrderBy(annotation.Start))
	out := annotation.NewSet()
	for i := 0; i+1 < len(sorted); i++ {
		left, right := sorted[i], sorted[i+1]
		if !m.adjacent(left, right, text) {
			out.Add(left)
			continue
		}
		merged, err := annotation.New(text[left.Start():right.End()], left.Start(), right.End(),
			m.replaceTag(left.Tag(), right.Tag()))
		if err != nil {
			return nil, err
		}
		sorted[i+1] = merged
	}
	if len(sorted) > 0 {
		out.Add(sorted[len(sorted)-1])
	}
	return out, nil
}

func (m *MergeAdjacent) Process(doc *document.Document) error { return replaceAnnotations(doc, m) }
