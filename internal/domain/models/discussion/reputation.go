package discussion

import (
	"encoding/json"
	"fmt"
)

// ReputationNode is one level of a pseudonym's reputation trie. The trie
// mirrors the path hierarchy: a count at label sequence l1.l2...lk is
// reputation earned specifically at that path, not inherited. The stored
// document shape:
//
//	{
//	    "a": {
//	        "count": 4,
//	        "b": {"count": 2}
//	    }
//	}
//
// so labels and the "count" field share a JSON object. That needs a custom
// codec rather than struct tags.
type ReputationNode struct {
	Count    int64
	Children map[string]*ReputationNode
}

// Child returns the node under label, or nil.
func (n *ReputationNode) Child(label string) *ReputationNode {
	if n == nil || n.Children == nil {
		return nil
	}
	return n.Children[label]
}

// ensureChild returns the node under label, creating it if absent.
func (n *ReputationNode) ensureChild(label string) *ReputationNode {
	if n.Children == nil {
		n.Children = make(map[string]*ReputationNode)
	}
	child, ok := n.Children[label]
	if !ok {
		child = &ReputationNode{}
		n.Children[label] = child
	}
	return child
}

// Add increments the count at exactly the node reached by labels, creating
// intermediate levels as needed, and returns that node's new count. This is
// the in-memory mirror of the store-side atomic increment; the store remains
// authoritative.
func (n *ReputationNode) Add(labels []string, delta int64) int64 {
	node := n
	for _, label := range labels {
		node = node.ensureChild(label)
	}
	node.Count += delta
	return node.Count
}

// MarshalJSON writes the flattened label/count object shape. Zero counts are
// omitted: intermediate levels created only to reach a deeper label carry no
// count field, matching how the store materializes them.
func (n *ReputationNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(n.Children)+1)
	if n.Count != 0 {
		m["count"] = n.Count
	}
	for label, child := range n.Children {
		m[label] = child
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flattened shape back. Every key except "count" is
// a path label holding a nested node.
func (n *ReputationNode) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("reputation node: %w", err)
	}
	n.Count = 0
	n.Children = nil
	for key, value := range raw {
		if key == "count" {
			if err := json.Unmarshal(value, &n.Count); err != nil {
				return fmt.Errorf("reputation count: %w", err)
			}
			continue
		}
		child := &ReputationNode{}
		if err := json.Unmarshal(value, child); err != nil {
			return fmt.Errorf("reputation label %q: %w", key, err)
		}
		if n.Children == nil {
			n.Children = make(map[string]*ReputationNode)
		}
		n.Children[key] = child
	}
	return nil
}
