package matrix

import (
	"slices"
	"strings"
)

// Settings is the per-document configuration stored in the settingsJson block.
type Settings struct {
	IncludePath               string   `json:"includePath"`
	Recursive                 bool     `json:"recursive"`
	TodoTag                   string   `json:"todoTag"`
	MaxFiles                  int      `json:"maxFiles"`
	AutoRemoveTodoOnDone      bool     `json:"autoRemoveTodoOnDone"`
	EnableStrikethroughOnDone bool     `json:"enableStrikethroughOnDone"`
	ExemptPaths               []string `json:"exemptPaths"`
}

// DefaultSettings returns the built-in defaults. The global config may
// override them before they are copied into a document.
func DefaultSettings() Settings {
	return Settings{
		IncludePath: "",
		Recursive:   true,
		TodoTag:     "#todo",
		MaxFiles:    200,
		ExemptPaths: []string{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	c := s
	if s.ExemptPaths != nil {
		c.ExemptPaths = slices.Clone(s.ExemptPaths)
	} else {
		c.ExemptPaths = []string{}
	}
	return c
}

// IsExempt reports whether path sits at or under one of the exempt paths.
func (s Settings) IsExempt(path string) bool {
	for _, p := range s.ExemptPaths {
		p = strings.TrimSuffix(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Equal reports whether two settings values are the same.
func (s Settings) Equal(o Settings) bool {
	return s.IncludePath == o.IncludePath &&
		s.Recursive == o.Recursive &&
		s.TodoTag == o.TodoTag &&
		s.MaxFiles == o.MaxFiles &&
		s.AutoRemoveTodoOnDone == o.AutoRemoveTodoOnDone &&
		s.EnableStrikethroughOnDone == o.EnableStrikethroughOnDone &&
		slices.Equal(s.ExemptPaths, o.ExemptPaths)
}
