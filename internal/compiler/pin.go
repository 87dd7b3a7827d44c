package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/splitkeeper/internal/ir"
)

// ErrCannotPin is returned by PinIDs for documents it cannot rewrite.
var ErrCannotPin = errors.New("split ids can only be written into YAML route documents")

// PinIDs adds an explicit id to every split declared without one, so that
// renaming the split later keeps its records. The ids written are the ones
// Compile derives, so records saved before pinning still match. It returns
// the rewritten document and the number of ids added; when none are
// missing, data is returned unchanged.
//
// Only YAML documents are rewritten. Comments are kept; indentation is
// normalized to two spaces.
func PinIDs(data []byte, filename string, opts Options) ([]byte, int, error) {
	_, derived, err := compile(data, filename, opts)
	if err != nil {
		return nil, 0, err
	}
	if len(derived) == 0 {
		return data, 0, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
	default:
		return nil, 0, fmt.Errorf("%s: %w", filename, ErrCannotPin)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, 0, &ir.FormatError{Path: filename, Message: "cannot parse route document", Err: err}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, 0, &ir.FormatError{Path: filename, Message: "route document is empty"}
	}

	root := doc.Content[0]
	for _, d := range derived {
		item, err := pieceNode(root, d.Path)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", filename, err)
		}
		item.Content = append(item.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: "id"},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: d.ID.String()},
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", filename, err)
	}
	if err := enc.Close(); err != nil {
		return nil, 0, fmt.Errorf("encode %s: %w", filename, err)
	}
	return buf.Bytes(), len(derived), nil
}

// PinFile runs PinIDs on the document at path and replaces the file when
// ids were added. The replacement is written beside the file and renamed
// over it.
func PinFile(path string, opts Options) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	out, n, err := PinIDs(data, path, opts)
	if err != nil || n == 0 {
		return 0, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, fmt.Errorf("pin ids: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("pin ids: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("pin ids: %w", err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return 0, fmt.Errorf("pin ids: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("pin ids: %w", err)
	}
	return n, nil
}

// pieceNode follows an index path through nested pieces lists.
func pieceNode(n *yaml.Node, path []int) (*yaml.Node, error) {
	n = resolve(n)
	for _, i := range path {
		list := resolve(mappingValue(n, "pieces"))
		if list == nil || list.Kind != yaml.SequenceNode || i >= len(list.Content) {
			return nil, fmt.Errorf("no piece at %v", path)
		}
		n = resolve(list.Content[i])
	}
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("piece at %v is not a mapping", path)
	}
	return n, nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
