// Package yml navigates decoded YAML documents.
package yml

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type (
	// Node is a yaml.Node with lookup helpers
	Node yaml.Node
)

// Root returns the first content node of a document node, or n itself
func (n *Node) Root() *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0])
	}
	return n
}

// Lookup returns the value of a mapping key matched case insensitively, nil
// when missing.
func (n *Node) Lookup(name string) *Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if strings.EqualFold(n.Content[i].Value, name) {
			return (*Node)(n.Content[i+1])
		}
	}
	return nil
}

// Pairs visits mapping entries in document order
func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// String returns the scalar value, "" for other kinds
func (n *Node) String() string {
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// Decode decodes the node into dest
func (n *Node) Decode(dest interface{}) error {
	return (*yaml.Node)(n).Decode(dest)
}

// Interface converts the node into plain Go values
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		return n.Root().Interface()
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			value, _ := strconv.ParseBool(n.Value)
			return value
		case "!!null":
			return nil
		case "!!float":
			value, _ := strconv.ParseFloat(n.Value, 64)
			return value
		case "!!int":
			value, _ := strconv.Atoi(n.Value)
			return value
		}
		return n.Value
	case yaml.MappingNode:
		aMap := make(map[string]interface{}, len(n.Content)/2)
		_ = n.Pairs(func(key string, node *Node) error {
			aMap[key] = node.Interface()
			return nil
		})
		return aMap
	case yaml.SequenceNode:
		aSlice := make([]interface{}, 0, len(n.Content))
		for _, item := range n.Content {
			aSlice = append(aSlice, (*Node)(item).Interface())
		}
		return aSlice
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
	}
	return nil
}
