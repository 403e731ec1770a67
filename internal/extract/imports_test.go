package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImports_NamedAndDefaultAndNamespace(t *testing.T) {
	t.Parallel()

	src := `
import React from 'react'
import { useState, useEffect as useFX } from 'react'
import * as path from 'node:path'
const fs = require('fs')
`
	got := ExtractImports(src)

	assert.Contains(t, got.Symbols, "React")
	assert.Contains(t, got.Symbols, "useState")
	assert.Contains(t, got.Symbols, "useFX")
	assert.Contains(t, got.Symbols, "path")

	assert.Contains(t, got.From, "react")
	assert.Contains(t, got.From, "fs")
	assert.NotContains(t, got.From, "node:path", "runtime-scheme specifiers are filtered")
}

func TestExtractImports_FiltersAbsoluteURLs(t *testing.T) {
	t.Parallel()

	src := `import x from 'https://example.com/module.js'`
	got := ExtractImports(src)
	assert.Empty(t, got.From)
}

func TestExtractImports_Deduplicates(t *testing.T) {
	t.Parallel()

	src := `
import { foo } from 'a'
import { foo } from 'b'
`
	got := ExtractImports(src)

	count := 0
	for _, s := range got.Symbols {
		if s == "foo" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.ElementsMatch(t, []string{"a", "b"}, got.From)
}

func TestExtractImports_MalformedInputDoesNotPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		ExtractImports("import from '")
		ExtractImports("require(")
		ExtractImports("")
	})
}

func TestFlattenSymbols_FlattensNestedUniqueOrdered(t *testing.T) {
	t.Parallel()

	tree := []Symbol{
		{Name: "Outer", Children: []Symbol{
			{Name: "Inner"},
			{Name: "Outer"}, // duplicate, should not repeat
		}},
		{Name: "Sibling"},
	}

	got := FlattenSymbols(tree)
	assert.Equal(t, []string{"Outer", "Inner", "Sibling"}, got)
}
