package manifest

import (
	"gopkg.in/yaml.v3"
)

// located is a position in the YAML node tree. A nil node means the value
// is absent; lookups below it stay nil.
type located struct {
	node *yaml.Node
}

func (l located) child(key string) located {
	if l.node == nil || l.node.Kind != yaml.MappingNode {
		return located{}
	}
	for i := 0; i+1 < len(l.node.Content); i += 2 {
		if l.node.Content[i].Value == key {
			return located{node: l.node.Content[i+1]}
		}
	}
	return located{}
}

func (l located) at(i int) *yaml.Node {
	if l.node == nil || l.node.Kind != yaml.SequenceNode || i >= len(l.node.Content) {
		return nil
	}
	return l.node.Content[i]
}

// lineIndex maps decoded manifest entries back to their source lines.
type lineIndex struct {
	root located
}

func newLineIndex(doc *yaml.Node) lineIndex {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return lineIndex{root: located{node: doc.Content[0]}}
	}
	return lineIndex{}
}

func (x lineIndex) at(section string, i int) located {
	return located{node: x.root.child(section).at(i)}
}
