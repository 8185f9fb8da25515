// Package config reads YAML pipeline definitions and builds the tokenizers,
// lookup dictionaries, and processors they describe.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the top-level configuration document.
type File struct {
	// Store is the path of an optional SQLite dictionary store.
	Store      string                   `yaml:"store"`
	Tokenizers map[string]TokenizerSpec `yaml:"tokenizers"`
	Lookups    map[string]LookupSpec    `yaml:"lookups"`
	Processors []ProcessorSpec          `yaml:"processors"`
}

// TokenizerSpec describes one named tokenizer.
type TokenizerSpec struct {
	// Type is word_boundary (default) or space_split.
	Type string `yaml:"type"`
	// Link is literal (default), alnum, or none.
	Link       string `yaml:"link"`
	DropBlanks bool   `yaml:"drop_blanks"`
}

// LookupSpec describes one named dictionary. Items come from File, Items,
// or a list in the dictionary store, in that order of preference.
type LookupSpec struct {
	// Type is set (default) or trie.
	Type  string   `yaml:"type"`
	File  string   `yaml:"file"`
	Items []string `yaml:"items"`
	Store string   `yaml:"store"`
	// StripLines trims every line of File. Defaults to true.
	StripLines       *bool    `yaml:"strip_lines"`
	Encoding         string   `yaml:"encoding"`
	MatchingPipeline []string `yaml:"matching_pipeline"`
	CleaningPipeline []string `yaml:"cleaning_pipeline"`
	// Tokenizer splits trie items into phrases.
	Tokenizer string `yaml:"tokenizer"`
}

// ProcessorSpec describes one pipeline stage. Which fields apply depends
// on Type.
type ProcessorSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Tag      string `yaml:"tag"`
	Priority int    `yaml:"priority"`

	// Lookup annotators.
	Lookup           string   `yaml:"lookup"`
	Values           []string `yaml:"values"`
	MatchingPipeline []string `yaml:"matching_pipeline"`
	Overlapping      bool     `yaml:"overlapping"`
	Tokenizer        string   `yaml:"tokenizer"`

	// Regular expression annotator.
	Pattern        string   `yaml:"pattern"`
	CapturingGroup int      `yaml:"capturing_group"`
	PreMatchWords  []string `yaml:"pre_match_words"`

	// Sequence annotator.
	Sequence  []map[string]any `yaml:"sequence"`
	Skip      []string         `yaml:"skip"`
	Direction string           `yaml:"direction"`

	// Overlap resolver.
	SortBy  []string `yaml:"sort_by"`
	Reverse []string `yaml:"reverse"`

	// Merger and redactors.
	SlackRegexp  string `yaml:"slack_regexp"`
	CheckOverlap *bool  `yaml:"check_overlap"`
	OpenChar     string `yaml:"open_char"`
	CloseChar    string `yaml:"close_char"`

	// Nested group.
	Processors []ProcessorSpec `yaml:"processors"`
}

// Parse decodes a configuration document. Unknown fields are rejected; an
// empty document is valid.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &f, nil
}

// LoadFile reads and parses the configuration at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
