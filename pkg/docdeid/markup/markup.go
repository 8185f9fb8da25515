// Package markup renders annotations as inline XML-like tags.
package markup

import (
	"sort"
	"strings"

	"github.com/cognicore/docdeid/pkg/docdeid/annotation"
)

// Intext wraps each annotation in <TAG>...</TAG>, replacing spans from right
// to left. Overlapping annotations give garbled output; use Nested for those.
func Intext(text string, annos *annotation.Set) string {
	rightToLeft := annotation.OrderBy(annotation.End).WithCallback(annotation.End, annotation.Reverse)
	for _, a := range annos.Sorted(rightToLeft) {
		tag := strings.ToUpper(a.Tag())
		text = text[:a.Start()] + "<" + tag + ">" + a.Text() + "</" + tag + ">" + text[a.End():]
	}
	return text
}

// Nested inserts opening and closing tags around every annotation so that
// nested annotations produce properly nested markup. At a shared boundary,
// shorter annotations are closed first and opened last.
func Nested(text string, annos *annotation.Set) string {
	shortestFirst := annos.Sorted(annotation.OrderBy(annotation.Length))

	starts := make(map[int][]annotation.Annotation)
	ends := make(map[int][]annotation.Annotation)
	for _, a := range shortestFirst {
		starts[a.Start()] = append(starts[a.Start()], a)
		ends[a.End()] = append(ends[a.End()], a)
	}

	var indices []int
	for i := range starts {
		indices = append(indices, i)
	}
	for i := range ends {
		if _, ok := starts[i]; !ok {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)

	var b strings.Builder
	last := 0
	for _, idx := range indices {
		b.WriteString(text[last:idx])
		for _, a := range ends[idx] {
			b.WriteString("</" + strings.ToUpper(a.Tag()) + ">")
		}
		opening := starts[idx]
		for i := len(opening) - 1; i >= 0; i-- {
			b.WriteString("<" + strings.ToUpper(opening[i].Tag()) + ">")
		}
		last = idx
	}
	b.WriteString(text[last:])
	return b.String()
}
