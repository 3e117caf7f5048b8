package model

import (
	"errors"
	"fmt"
	"strings"
)

// StandardType classifies a document by the body that issued it.
type StandardType string

const (
	StandardTypeNational StandardType = "NATIONAL"
	StandardTypeIndustry StandardType = "INDUSTRY"
	StandardTypeRegional StandardType = "REGIONAL"
)

// ErrInvalidStandardType is returned when a value is not one of the known variants.
var ErrInvalidStandardType = errors.New("invalid standard type")

// TypeInfo is the presentation of a StandardType: a display label and a badge color token.
type TypeInfo struct {
	Value StandardType `json:"value"`
	Label string       `json:"label"`
	Color string       `json:"color"`
}

// typeTable is ordered as the variants are declared. Every variant must have an entry.
var typeTable = []TypeInfo{
	{Value: StandardTypeNational, Label: "国标", Color: "red"},
	{Value: StandardTypeIndustry, Label: "行标", Color: "blue"},
	{Value: StandardTypeRegional, Label: "地标", Color: "green"},
}

// Types returns the presentation table for all variants.
func Types() []TypeInfo {
	out := make([]TypeInfo, len(typeTable))
	copy(out, typeTable)
	return out
}

// Valid reports whether t is one of the declared variants.
func (t StandardType) Valid() bool {
	for _, info := range typeTable {
		if info.Value == t {
			return true
		}
	}
	return false
}

// Info returns the label and color of t. Unknown values get a neutral entry labelled with the raw value.
func (t StandardType) Info() TypeInfo {
	for _, info := range typeTable {
		if info.Value == t {
			return info
		}
	}
	return TypeInfo{Value: t, Label: string(t), Color: "gray"}
}

// Label is shorthand for t.Info().Label.
func (t StandardType) Label() string { return t.Info().Label }

// Color is shorthand for t.Info().Color.
func (t StandardType) Color() string { return t.Info().Color }

// ParseStandardType converts a token such as "national" or "NATIONAL" into a StandardType.
func ParseStandardType(s string) (StandardType, error) {
	t := StandardType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStandardType, s)
	}
	return t, nil
}
