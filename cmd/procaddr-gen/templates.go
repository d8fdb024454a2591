package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

var funcMap = template.FuncMap{
	"quote": strconv.Quote,
	"nul":   func(s string) string { return s + "\x00" },
	"hex32": func(v uint32) string { return fmt.Sprintf("0x%08x", v) },
	"join":  strings.Join,
}

var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	headerTmpl +
		constantsTmpl +
		stringsTmpl +
		entriesTmpl +
		hashMapTmpl +
		idsTmpl +
		symbolsTmpl +
		accessorsTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		panic(fmt.Sprintf("template %s: %v", name, err))
	}
}

// --- Template data types ---

type fileData struct {
	Package     string
	Generator   string
	BuildID     string
	Sources     []string
	Fingerprint string

	HashSize    uint32
	PrimeFactor uint32
	PrimeStep   uint32
	MaxProbe    int

	Entries    []entryData
	Collisions []collisionRow
	// CollisionList is the histogram as a Go list literal body.
	CollisionList string
	MapRows       [][]string
	Layers        []layerData
}

type entryData struct {
	ID         int
	Name       string
	IDConst    string
	NameOffset uint32
	Hash       uint32
	Condition  string
	Comment    string
	Guard      string
	Owner      string
	ReturnType string
	Params     []paramData
}

type paramData struct {
	Type string
	Name string
	Decl string
}

type collisionRow struct {
	Level string
	Count int
}

type layerData struct {
	Name    string
	Symbols []string
}

// --- Template definitions ---

const headerTmpl = `{{define "header"}}// Code generated by {{.Generator}}. DO NOT EDIT.
//
// Build: {{.BuildID}}
{{- range .Sources}}
// Source: {{.}}
{{- end}}
// Fingerprint: {{.Fingerprint}}

package {{.Package}}

import "github.com/procaddr/procaddr-go/pkg/entrypoint"
{{end}}`

const constantsTmpl = `{{define "constants"}}
const (
	// PrimeFactor is the rolling hash multiplier.
	PrimeFactor = {{.PrimeFactor}}
	// PrimeStep is the probe increment.
	PrimeStep = {{.PrimeStep}}
	// HashSize is the number of slots in hashMap.
	HashSize = {{.HashSize}}

	none = 0xffff
)
{{end}}`

const stringsTmpl = `{{define "strings"}}
// stringBlob holds every entry point name, NUL terminated, in id order.
const stringBlob = ""{{range .Entries}} +
	{{quote (nul .Name)}}{{end}}
{{end}}`

const entriesTmpl = `{{define "entries"}}
// entries lists every entry point in id order.
var entries = []entrypoint.CompiledEntry{
{{- range .Entries}}
	{ // {{.Name}}: {{.Comment}}
		NameOffset: {{.NameOffset}},
		Hash:       {{hex32 .Hash}},
		Condition:  {{.Condition}},
{{- if .Guard}}
		Guard:      {{quote .Guard}},
{{- end}}
{{- if .Owner}}
		Owner:      {{.Owner}},
{{- end}}
{{- if .ReturnType}}
		ReturnType: {{quote .ReturnType}},
{{- end}}
{{- if .Params}}
		Params: []entrypoint.Param{
{{- range .Params}}
			{Type: {{quote .Type}}, Name: {{quote .Name}}{{if .Decl}}, Decl: {{quote .Decl}}{{end}}},
{{- end}}
		},
{{- end}}
	},
{{- end}}
}
{{end}}`

const hashMapTmpl = `{{define "hashMap"}}
// Hash table stats:
// size {{.HashSize}} entries
// collisions entries:
{{- range .Collisions}}
// {{printf "%6s" .Level}} {{printf "%6d" .Count}}
{{- end}}

var hashMap = [HashSize]uint16{
{{- range .MapRows}}
	{{join . ", "}},
{{- end}}
}
{{end}}`

const idsTmpl = `{{define "ids"}}
// Entry point ids. They index every dispatch table.
const (
{{- range .Entries}}
	{{.IDConst}} = {{.ID}}
{{- end}}
)
{{end}}`

const symbolsTmpl = `{{define "symbols"}}
// Symbols lists the implementation symbol of every entry point per dispatch
// layer, in id order.
var Symbols = map[string][]string{
{{- range .Layers}}
	{{quote .Name}}: {
{{- range .Symbols}}
		{{quote .}},
{{- end}}
	},
{{- end}}
}
{{end}}`

const accessorsTmpl = `{{define "accessors"}}
// Compiled returns the compiled index layout.
func Compiled() entrypoint.Compiled {
	return entrypoint.Compiled{
		HashSize:    HashSize,
		PrimeFactor: PrimeFactor,
		PrimeStep:   PrimeStep,
		Strings:     []byte(stringBlob),
		Entries:     append([]entrypoint.CompiledEntry(nil), entries...),
		Map:         append([]uint16(nil), hashMap[:]...),
		Collisions:  [entrypoint.CollisionBuckets]int{ {{- .CollisionList -}} },
		MaxProbe:    {{.MaxProbe}},
	}
}

// Index restores the name index from the compiled layout.
func Index() (*entrypoint.Index, error) {
	return entrypoint.Restore(Compiled())
}
{{end}}`
