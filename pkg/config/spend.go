package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AddSpend adds amount to budget.spent in the file at path and rewrites it.
// Only that scalar changes; every other key, its order and its comments
// survive the round trip. Negative amounts are applied as-is.
//
// The read-modify-write is not locked: two processes sharing one file race.
func AddSpend(path string, amount float64) (float64, error) {
	var updated float64
	err := rewrite(path, func(root *yaml.Node) error {
		spent := mappingChild(mappingChild(root, "budget"), "spent")
		current := 0.0
		if spent.Kind == yaml.ScalarNode && spent.Tag != "!!null" && spent.Value != "" {
			v, err := strconv.ParseFloat(spent.Value, 64)
			if err != nil {
				return fmt.Errorf("parse config: budget.spent %q: %w", spent.Value, err)
			}
			current = v
		}
		updated = current + amount
		setFloat(spent, updated)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// SetBudget rewrites budget.total and budget.warnThreshold in place.
// A nil pointer leaves the field untouched.
func SetBudget(path string, total, warnThreshold *float64) error {
	return rewrite(path, func(root *yaml.Node) error {
		budget := mappingChild(root, "budget")
		if total != nil {
			setFloat(mappingChild(budget, "total"), *total)
		}
		if warnThreshold != nil {
			setFloat(mappingChild(budget, "warnThreshold"), *warnThreshold)
		}
		return nil
	})
}

// rewrite parses path as a YAML node tree, applies edit to the top-level
// mapping and writes the tree back with the original file mode.
func rewrite(path string, edit func(root *yaml.Node) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	root, err := documentRoot(&doc)
	if err != nil {
		return err
	}
	if err := edit(root); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setFloat(n *yaml.Node, v float64) {
	n.Kind = yaml.ScalarNode
	n.Tag = ""
	n.Style = 0
	n.Value = strconv.FormatFloat(v, 'f', -1, 64)
}

// documentRoot returns the top-level mapping, creating it for an empty file.
func documentRoot(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if doc.Kind != yaml.DocumentNode {
		return nil, fmt.Errorf("parse config: unexpected YAML node kind %d", doc.Kind)
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse config: top level is not a mapping")
	}
	return root, nil
}

// mappingChild returns the value node for key, appending an empty one if absent.
// A non-mapping node is converted into a mapping.
func mappingChild(m *yaml.Node, key string) *yaml.Node {
	if m.Kind != yaml.MappingNode {
		m.Kind = yaml.MappingNode
		m.Tag = "!!map"
		m.Value = ""
		m.Content = nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content, k, v)
	return v
}
