// Package registry turns YAML API registry documents into an entry point
// catalog. A document lists commands with their signatures, features that
// enable commands from a core version on, and extensions that enable commands
// by name. The generator config decides which versions and extensions a
// build includes. The procaddr-gen tool and the builtin registry both use it.
package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// Document is one registry file.
type Document struct {
	// Source names where the document came from. It is not part of the YAML.
	Source string `yaml:"-"`

	Commands   []RawCommand   `yaml:"commands"`
	Features   []RawFeature   `yaml:"features"`
	Extensions []RawExtension `yaml:"extensions"`
}

// RawCommand is a command declaration.
type RawCommand struct {
	Name   string             `yaml:"name"`
	Return string             `yaml:"return"`
	Params []entrypoint.Param `yaml:"params"`
}

// RawFeature enables commands from a core version on.
type RawFeature struct {
	Name     string   `yaml:"name"`
	API      string   `yaml:"api"`
	Number   string   `yaml:"number"`
	Commands []string `yaml:"commands"`
}

// RawExtension enables commands when the extension is enabled.
type RawExtension struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`      // "instance" or "device"
	Supported string   `yaml:"supported"` // API the extension is defined for, or "disabled"
	Protect   string   `yaml:"protect"`   // optional platform guard
	Commands  []string `yaml:"commands"`
}

// Descriptor converts the command into an entry point descriptor with no
// condition.
func (c RawCommand) Descriptor() entrypoint.Descriptor {
	return entrypoint.Descriptor{
		Name:       c.Name,
		ReturnType: c.Return,
		Params:     c.Params,
	}
}

// Parse parses a registry document from YAML bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing registry: %w", err)
	}
	return &doc, nil
}

// Load loads and parses a registry document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}
