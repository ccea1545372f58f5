// Copyright (c) 2025 TenantForge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package connspec

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadFile reads a connections file. YAML and JSON are both accepted; the file
// holds either a list of connections or a single connection object.
func LoadFile(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read connections file")
	}
	list, err := Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return list, nil
}

// Decode parses a list of connections, or a single connection wrapped into a
// one-element list.
func Decode(data []byte) ([]Input, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "invalid connections document")
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []Input
		if err := root.Decode(&list); err != nil {
			return nil, errors.Wrap(err, "invalid connection list")
		}
		return list, nil
	case yaml.MappingNode:
		var one Input
		if err := root.Decode(&one); err != nil {
			return nil, errors.Wrap(err, "invalid connection")
		}
		return []Input{one}, nil
	default:
		return nil, errors.New("connections must be a list or an object")
	}
}
