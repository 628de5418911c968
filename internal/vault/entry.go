package vault

import (
	"path"
	"strings"
)

// Entry is either a File or a Folder.
type Entry interface {
	EntryPath() string
	isEntry()
}

// File is a note inside the vault. Path is vault-relative and slash separated.
type File struct {
	Path string
	Name string // basename without extension
	Ext  string
}

// Folder is a directory inside the vault.
type Folder struct {
	Path string
}

func (f File) EntryPath() string   { return f.Path }
func (f Folder) EntryPath() string { return f.Path }

func (File) isEntry()   {}
func (Folder) isEntry() {}

// NewFile builds a File from a vault-relative path.
func NewFile(p string) File {
	p = path.Clean(strings.TrimPrefix(p, "/"))
	base := path.Base(p)
	ext := path.Ext(base)
	return File{
		Path: p,
		Name: strings.TrimSuffix(base, ext),
		Ext:  ext,
	}
}

// LinkPath is the path as it would appear inside [[...]]: markdown files
// drop their extension.
func (f File) LinkPath() string {
	if f.Ext == ".md" {
		return strings.TrimSuffix(f.Path, f.Ext)
	}
	return f.Path
}

// Resolution is the outcome of resolving a cross-reference.
type Resolution interface {
	isResolution()
}

// Resolved carries the document a reference points at.
type Resolved struct {
	File File
}

// Unresolved records a reference that matched nothing.
type Unresolved struct {
	Target string
}

func (Resolved) isResolution()   {}
func (Unresolved) isResolution() {}
