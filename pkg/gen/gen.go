// Package gen emits Go constant definitions from a parsed layout: one
// int-typed enum per table, ID first, then the table's columns in row
// schema order. The output is a convenience artifact for programs
// that address rows positionally; nothing in the converter consumes
// it.
package gen

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ssargent/brokkr/pkg/layout"
)

// Generate writes one Go source file for the whole layout.
func Generate(w io.Writer, spec *layout.Spec, pkgName string) error {
	if pkgName == "" {
		pkgName = "layoutconst"
	}
	if _, err := fmt.Fprintf(w, "// Code generated by brokkr; DO NOT EDIT.\n\npackage %s\n", pkgName); err != nil {
		return err
	}

	for _, table := range spec.Tables() {
		typeName := exportName(table.Name)
		if _, err := fmt.Fprintf(w, "\n// %s identifies a column of the %s table.\ntype %s int\n\nconst (\n",
			typeName, table.Name, typeName); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "\t%sID %s = iota\n", typeName, typeName); err != nil {
			return err
		}
		for _, col := range table.RowSchema() {
			if _, err := fmt.Fprintf(w, "\t%s%s\n", typeName, exportName(col.Name)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(w, ")\n"); err != nil {
			return err
		}
	}
	return nil
}

// exportName turns a layout identifier into an exported Go name:
// first letter upper-cased, non-identifier characters treated as word
// breaks.
func exportName(name string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upperNext = true
			continue
		}
		if upperNext {
			b.WriteRune(unicode.ToUpper(r))
			upperNext = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
