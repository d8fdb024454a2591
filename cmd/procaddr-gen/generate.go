package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
)

// mapRowWidth is the number of hash map slots per generated line.
const mapRowWidth = 8

// Generate renders the Go source of a sealed layout into package pkg.
func Generate(l *artifact.Layout, pkg, generator string) (string, error) {
	c := l.Compiled
	pool := entrypoint.NewStringPoolFrom(c.Strings)

	data := fileData{
		Package:     pkg,
		Generator:   generator,
		BuildID:     l.BuildID,
		Sources:     l.Sources,
		Fingerprint: l.FingerprintHex(),
		HashSize:    c.HashSize,
		PrimeFactor: c.PrimeFactor,
		PrimeStep:   c.PrimeStep,
		MaxProbe:    c.MaxProbe,
	}

	for id, ce := range c.Entries {
		name := pool.String(ce.NameOffset)
		short, ok := strings.CutPrefix(name, l.Namespace)
		if !ok || short == "" {
			return "", fmt.Errorf("entry point %s lacks namespace %q", name, l.Namespace)
		}
		e := entryData{
			ID:         id,
			Name:       name,
			IDConst:    "ID" + short,
			NameOffset: ce.NameOffset,
			Hash:       ce.Hash,
			Condition:  conditionLiteral(ce.Condition),
			Comment:    ce.Condition.String(),
			Guard:      ce.Guard,
			Owner:      ownerLiteral(ce.Owner),
			ReturnType: ce.ReturnType,
		}
		if e.Guard != "" {
			e.Comment += ", guarded by " + e.Guard
		}
		for _, p := range ce.Params {
			e.Params = append(e.Params, paramData(p))
		}
		data.Entries = append(data.Entries, e)
	}

	counts := make([]string, len(c.Collisions))
	for i, n := range c.Collisions {
		level := strconv.Itoa(i)
		if i == len(c.Collisions)-1 {
			level += "+"
		}
		data.Collisions = append(data.Collisions, collisionRow{Level: level, Count: n})
		counts[i] = strconv.Itoa(n)
	}
	data.CollisionList = strings.Join(counts, ", ")

	for start := 0; start < len(c.Map); start += mapRowWidth {
		end := min(start+mapRowWidth, len(c.Map))
		row := make([]string, 0, end-start)
		for _, v := range c.Map[start:end] {
			if v == entrypoint.None {
				row = append(row, "none")
			} else {
				row = append(row, fmt.Sprintf("0x%04x", v))
			}
		}
		data.MapRows = append(data.MapRows, row)
	}

	for _, ls := range l.Layers {
		data.Layers = append(data.Layers, layerData{Name: ls.Layer, Symbols: ls.Symbols})
	}

	var b strings.Builder
	for _, name := range []string{"header", "constants", "strings", "entries", "hashMap", "ids", "symbols", "accessors"} {
		renderTemplate(&b, name, data)
	}
	return b.String(), nil
}

// conditionLiteral renders c as a Go composite literal.
func conditionLiteral(c entrypoint.Condition) string {
	switch c.Kind {
	case entrypoint.CoreVersion:
		return fmt.Sprintf("entrypoint.RequireVersion(0x%x)", c.Version)
	case entrypoint.Extension:
		scope := "entrypoint.ScopeInstance"
		if c.Scope == entrypoint.ScopeDevice {
			scope = "entrypoint.ScopeDevice"
		}
		return fmt.Sprintf("entrypoint.RequireExtension(%q, %s)", c.Extension, scope)
	default:
		return "entrypoint.Condition{}"
	}
}

func ownerLiteral(o entrypoint.OwnerKind) string {
	switch o {
	case entrypoint.OwnerDevice:
		return "entrypoint.OwnerDevice"
	case entrypoint.OwnerCommandBuffer:
		return "entrypoint.OwnerCommandBuffer"
	default:
		return ""
	}
}
