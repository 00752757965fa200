package explorer

import "github.com/aretw0/sitenav/pkg/navpath"

// Siblings returns the pages before and after id in reading order.
//
// The previous page is the preceding sibling, or the parent for a first child. The next
// page is the first child, else the following sibling, else the following sibling of
// the closest ancestor that has one.
func (s *State) Siblings(id string) (prev, next *Node) {
	id = navpath.Sanitize(id)

	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, nil
	}
	if len(n.Children) > 0 {
		if c, ok := s.nodes[n.Children[0]]; ok {
			next = cloned(c)
		}
	}
	if id == navpath.Root {
		return nil, next
	}

	parent, ok := s.nodes[n.Parent]
	if !ok {
		return nil, next
	}
	index := indexOf(parent.Children, id)
	if index == 0 {
		prev = cloned(parent)
	} else if index > 0 {
		prev = cloned(s.nodes[parent.Children[index-1]])
	}
	if next == nil && index >= 0 && index < len(parent.Children)-1 {
		next = cloned(s.nodes[parent.Children[index+1]])
	}
	if next == nil {
		next = s.rightFallbackLocked(parent)
	}
	return prev, next
}

func (s *State) rightFallbackLocked(cur *Node) *Node {
	for cur.ID != navpath.Root {
		parent, ok := s.nodes[cur.Parent]
		if !ok {
			return nil
		}
		index := indexOf(parent.Children, cur.ID)
		if index >= 0 && index < len(parent.Children)-1 {
			return cloned(s.nodes[parent.Children[index+1]])
		}
		cur = parent
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, c := range ids {
		if c == id {
			return i
		}
	}
	return -1
}

func cloned(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := n.clone()
	return &c
}
