package solrquery

import "strconv"

const placeholderPrefix = "q"

// TermRegistry maps every distinct search text of a tree to its placeholder.
// Placeholders are q0, q1, ... in order of first appearance in a pre-order,
// left-before-right walk.
type TermRegistry struct {
	texts []string
	ids   map[string]string
}

// CollectTerms builds the registry for root. Leaves sharing the same text share
// one placeholder.
func CollectTerms(root *Node) (*TermRegistry, error) {
	var texts []string
	if err := collectTexts(root, &texts); err != nil {
		return nil, err
	}

	r := &TermRegistry{ids: make(map[string]string, len(texts))}
	for _, text := range texts {
		if _, ok := r.ids[text]; ok {
			continue
		}
		r.ids[text] = placeholderPrefix + strconv.Itoa(len(r.texts))
		r.texts = append(r.texts, text)
	}
	return r, nil
}

func collectTexts(n *Node, texts *[]string) error {
	if err := n.validate(); err != nil {
		return err
	}
	if n.leaf != nil {
		*texts = append(*texts, n.leaf.text)
		return nil
	}
	if n.left != nil {
		if err := collectTexts(n.left, texts); err != nil {
			return err
		}
	}
	return collectTexts(n.right, texts)
}

func (r *TermRegistry) Placeholder(text string) (string, bool) {
	id, ok := r.ids[text]
	return id, ok
}

func (r *TermRegistry) Len() int { return len(r.texts) }

// Each calls fn for every text in placeholder order.
func (r *TermRegistry) Each(fn func(placeholder, text string)) {
	for _, text := range r.texts {
		fn(r.ids[text], text)
	}
}
