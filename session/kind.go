package session

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind classifies an upload by its file extension
type Kind int

const (
	KindUnknown Kind = iota
	KindText         // .txt, .asc
	KindSurface      // .stl
	KindVolume       // .nas
	KindTarget       // .msh, already in the output format
)

var kindNames = [...]string{"unknown", "text", "surface", "volume", "target"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// KindOf maps a file name to its kind; the extension match ignores case
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".asc":
		return KindText
	case ".stl":
		return KindSurface
	case ".nas":
		return KindVolume
	case ".msh":
		return KindTarget
	}
	return KindUnknown
}

// Extractable reports whether tokens are extracted from uploads of this kind.
// NASTRAN decks are plain text and are scanned as well.
func (k Kind) Extractable() bool {
	return k == KindText || k == KindVolume
}

// Convertible reports whether uploads of this kind can be converted
func (k Kind) Convertible() bool {
	return k == KindSurface || k == KindVolume
}
