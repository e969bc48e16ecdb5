package base

// Strategy is one prioritized lookup in a field cascade: a selector, the
// attribute names to read off the matched node, and an acceptance predicate.
type Strategy struct {
	// Selector locates the candidate node. Only the first match is considered.
	Selector string
	// Attrs are attribute names tried in order before (optionally) the text
	// content. An image strategy reads src and its lazy-load fallbacks here.
	Attrs []string
	// Text, when true, considers the node's text content after Attrs. A
	// strategy with no Attrs reads text regardless.
	Text bool
	// Accept filters candidate values. nil accepts any non-empty value.
	Accept func(string) bool
}

// Extract evaluates strategies in order and returns the first accepted value.
// The cascade short-circuits: once a strategy resolves to a node whose
// derived value passes the predicate, later strategies are never looked at.
// An exhausted cascade returns the empty string; callers apply their own
// field-specific fallback.
func Extract(doc *Document, cascade []Strategy) string {
	for _, st := range cascade {
		node := doc.First(st.Selector)
		if node == nil {
			continue
		}
		for _, v := range candidates(node, st) {
			if v == "" {
				continue
			}
			if st.Accept == nil || st.Accept(v) {
				return v
			}
		}
	}
	return ""
}

func candidates(node *Node, st Strategy) []string {
	var vals []string
	for _, attr := range st.Attrs {
		vals = append(vals, node.Attr(attr))
	}
	if st.Text || len(st.Attrs) == 0 {
		vals = append(vals, node.Text())
	}
	return vals
}
