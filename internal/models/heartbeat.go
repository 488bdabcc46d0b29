// Package models defines data structures and domain types.
package models

import "time"

// UnknownTag labels heartbeats that arrived without a dimension value.
const UnknownTag = "Unknown"

// Heartbeat is a single activity event emitted by an editor plugin.
type Heartbeat struct {
	ID       string    `json:"id"`
	User     string    `json:"user"`
	Time     time.Time `json:"time"`
	Entity   string    `json:"entity,omitempty"`
	Language string    `json:"language,omitempty"`
	Project  string    `json:"project,omitempty"`
	Editor   string    `json:"editor,omitempty"`
	Platform string    `json:"platform,omitempty"`
	IsWrite  bool      `json:"is_write,omitempty"`
}

// Timestamp returns the instant the heartbeat was recorded.
func (h Heartbeat) Timestamp() time.Time {
	return h.Time
}

// Dimension selects a heartbeat tag for grouping.
type Dimension int

const (
	// DimensionLanguage groups by programming language.
	DimensionLanguage Dimension = iota
	// DimensionProject groups by project name.
	DimensionProject
	// DimensionEditor groups by editor.
	DimensionEditor
	// DimensionPlatform groups by operating system.
	DimensionPlatform
)

// Dimensions lists every groupable dimension in display order.
var Dimensions = []Dimension{DimensionLanguage, DimensionProject, DimensionEditor, DimensionPlatform}

// String returns the display name for a dimension.
func (d Dimension) String() string {
	switch d {
	case DimensionLanguage:
		return "Languages"
	case DimensionProject:
		return "Projects"
	case DimensionEditor:
		return "Editors"
	case DimensionPlatform:
		return "Platforms"
	default:
		return "Unknown"
	}
}

// Tag returns the heartbeat's value for a dimension, or UnknownTag if unset.
func (h Heartbeat) Tag(d Dimension) string {
	var v string
	switch d {
	case DimensionLanguage:
		v = h.Language
	case DimensionProject:
		v = h.Project
	case DimensionEditor:
		v = h.Editor
	case DimensionPlatform:
		v = h.Platform
	}
	if v == "" {
		return UnknownTag
	}
	return v
}
