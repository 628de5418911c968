// Package hydrate turns parsed items into the runtime model by resolving
// cross-references against the vault.
package hydrate

import (
	"path"
	"strings"

	"github.com/gerunddev/notematrix/internal/matrix"
	"github.com/gerunddev/notematrix/internal/mdformat"
	"github.com/gerunddev/notematrix/internal/vault"
)

// Resolver finds the document a reference target points at, relative to the
// document being hydrated.
type Resolver interface {
	Resolve(target, basePath string) vault.Resolution
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(target, basePath string) vault.Resolution

func (f ResolverFunc) Resolve(target, basePath string) vault.Resolution {
	return f(target, basePath)
}

// NoResolver leaves every reference unresolved.
var NoResolver Resolver = ResolverFunc(func(target, _ string) vault.Resolution {
	return vault.Unresolved{Target: target}
})

// Hydrate builds the matrix for the document at basePath. A reference that
// cannot be resolved keeps its text and has no File.
func Hydrate(u mdformat.Unhydrated, r Resolver, basePath string) *matrix.Matrix {
	if r == nil {
		r = NoResolver
	}
	m := matrix.New(basePath, u.Settings)
	m.FrontMatter = u.FrontMatter.Clone()

	for _, s := range matrix.Sections() {
		raw := u.Items(s)
		if len(raw) == 0 {
			continue
		}
		items := make([]matrix.Item, 0, len(raw))
		for _, ri := range raw {
			items = append(items, Item(ri, r, basePath))
		}
		m.ReplaceSection(s, items)
	}
	return m
}

// Item hydrates one raw item.
func Item(ri mdformat.RawItem, r Resolver, basePath string) matrix.Item {
	it := matrix.Item{
		ID:       ri.ID,
		Title:    mdformat.UnescapeItemText(ri.TitleRaw),
		TitleRaw: ri.TitleRaw,
		Ref:      ri.Ref,
		Checked:  ri.Checked,
	}
	if ri.Ref == "" {
		return it
	}

	var res vault.Resolution = vault.Unresolved{Target: ri.Ref}
	if r != nil {
		if got := r.Resolve(ri.Ref, basePath); got != nil {
			res = got
		}
	}

	switch res := res.(type) {
	case vault.Resolved:
		f := res.File
		it.File = &f
		it.Title = firstNonEmpty(ri.Alias, f.Name, lastSegment(ri.Ref), ri.TitleRaw)
	case vault.Unresolved:
		it.Title = firstNonEmpty(ri.Alias, lastSegment(ri.Ref), ri.TitleRaw)
	}
	return it
}

func lastSegment(target string) string {
	t := strings.TrimSuffix(strings.TrimSpace(target), "/")
	if t == "" {
		return ""
	}
	return strings.TrimSuffix(path.Base(t), ".md")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// FromText runs the whole read path: parse, extract, hydrate.
func FromText(src string, defaults matrix.Settings, r Resolver, basePath string) *matrix.Matrix {
	doc := mdformat.Parse(src)
	return Hydrate(mdformat.Extract(doc, defaults), r, basePath)
}
