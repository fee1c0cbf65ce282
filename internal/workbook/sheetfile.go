package workbook

import (
	"bytes"
	"fmt"

	"go.yaml.in/yaml/v3"

	"github.com/twiced-technology-gmbh/plantrack/internal/sheet"
)

const yamlIndent = 2

// encodeSheet writes the header and each row as a one-line flow sequence
// so project files diff row by row.
func encodeSheet(sh *sheet.Sheet) ([]byte, error) {
	rows := &yaml.Node{Kind: yaml.SequenceNode}
	for _, r := range sh.Rows {
		rows.Content = append(rows.Content, flowSeq(r))
	}
	doc := &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{
		scalar("name"), scalar(sh.Name),
		scalar("header"), flowSeq(sh.Header),
		scalar("rows"), rows,
	}}
	return encodeNode(doc)
}

func decodeSheet(data []byte) (*sheet.Sheet, error) {
	var sh sheet.Sheet
	if err := yaml.Unmarshal(data, &sh); err != nil {
		return nil, err
	}
	if len(sh.Header) == 0 {
		return nil, fmt.Errorf("sheet %q has no header", sh.Name)
	}
	return &sh, nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func flowSeq(vals []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, v := range vals {
		n.Content = append(n.Content, scalar(v))
	}
	return n
}

func encodeNode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Store) loadSheet(path string) (*sheet.Sheet, error) {
	data, err := s.readFile(path)
	if err != nil {
		return nil, err
	}
	sh, err := decodeSheet(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return sh, nil
}

func (s *Store) saveSheet(path string, sh *sheet.Sheet) (bool, error) {
	data, err := encodeSheet(sh)
	if err != nil {
		return false, err
	}
	return s.writeFile(path, data)
}

func (s *Store) loadYAML(path string, out any) error {
	data, err := s.readFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (s *Store) saveYAML(path string, v any) error {
	data, err := encodeNode(v)
	if err != nil {
		return err
	}
	_, err = s.writeFile(path, data)
	return err
}
