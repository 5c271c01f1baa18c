package serialize

import "github.com/gofhir/modelvalidator/pkg/pool"

// pathSet is a tree of dotted field paths. A leaf selects the whole subtree.
type pathSet struct {
	leaf     bool
	children map[string]*pathSet
}

// newPathSet builds a tree from paths such as "address.city". Index segments
// ("people[0]") are ignored, so a path applies to every element of a list.
// It returns nil when paths is empty.
func newPathSet(paths []string) *pathSet {
	if len(paths) == 0 {
		return nil
	}
	root := &pathSet{}
	for _, p := range paths {
		node := root
		for _, seg := range pool.SplitPath(p) {
			if seg.IsIndex {
				continue
			}
			if node.leaf {
				break
			}
			node = node.child(seg.Name)
		}
		if node != root {
			node.leaf = true
			node.children = nil
		}
	}
	return root
}

func (p *pathSet) child(name string) *pathSet {
	if p.children == nil {
		p.children = make(map[string]*pathSet)
	}
	c, ok := p.children[name]
	if !ok {
		c = &pathSet{}
		p.children[name] = c
	}
	return c
}

// filter is the include and exclude selection for one nesting level.
type filter struct {
	include *pathSet
	exclude *pathSet
}

// keep applies include first, then exclude. It reports whether key is kept and
// returns the filter for the value stored under it.
func (f filter) keep(key string) (bool, filter) {
	var sub filter

	if f.include != nil {
		c, ok := f.include.children[key]
		if !ok {
			return false, filter{}
		}
		if !c.leaf {
			sub.include = c
		}
	}

	if f.exclude != nil {
		if c, ok := f.exclude.children[key]; ok {
			if c.leaf {
				return false, filter{}
			}
			sub.exclude = c
		}
	}
	return true, sub
}
