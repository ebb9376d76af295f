// Package gallery loads media listings, derives captions and tags from
// filenames, filters by tag and drives the lightbox viewer.
package gallery

import (
	"path"
	"strings"
)

// Kind is the media surface an item is shown on.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// TagSeparator splits a filename into display name and tags.
const TagSeparator = "#"

// ImageExtensions and VideoExtensions are the recognized media types.
var (
	ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}
	VideoExtensions = []string{"mp4", "webm"}
)

// Item is one gallery entry, derived once from a listing filename.
type Item struct {
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Kind    Kind     `json:"kind"`
	Caption string   `json:"caption"`
	Tags    []string `json:"tags,omitempty"`
}

// NewItem derives kind, caption and tags from name.
func NewItem(name, source string) Item {
	return Item{
		Name:    name,
		Source:  source,
		Kind:    KindOf(name),
		Caption: DeriveCaption(name),
		Tags:    DeriveTags(name),
	}
}

// HasTag reports exact, case-sensitive membership.
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// extension returns the lowercased extension without its dot.
func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func stripExtension(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// IsImage reports whether name has an image extension.
func IsImage(name string) bool { return contains(ImageExtensions, extension(name)) }

// IsVideo reports whether name has a video extension.
func IsVideo(name string) bool { return contains(VideoExtensions, extension(name)) }

// IsMedia reports whether name is an image or a video.
func IsMedia(name string) bool { return IsImage(name) || IsVideo(name) }

// KindOf classifies a filename by extension. Anything that is not a video
// is an image.
func KindOf(name string) Kind {
	if IsVideo(name) {
		return KindVideo
	}
	return KindImage
}

var separators = strings.NewReplacer("_", " ", "-", " ")

// DeriveCaption turns a filename into display text: the extension and any
// tag suffix are dropped, underscores and hyphens become spaces and
// whitespace is collapsed.
//
//	DeriveCaption("sports_day-2025#event#outdoor.jpg") == "sports day 2025"
func DeriveCaption(name string) string {
	base, _, _ := strings.Cut(stripExtension(name), TagSeparator)
	return strings.Join(strings.Fields(separators.Replace(base)), " ")
}

// DeriveTags returns the tag segments of a filename: everything after the
// first '#' of the extension-less name, split on '#'. Empty segments are
// dropped.
//
//	DeriveTags("sports_day-2025#event#outdoor.jpg") == []string{"event", "outdoor"}
func DeriveTags(name string) []string {
	parts := strings.Split(stripExtension(name), TagSeparator)
	var tags []string
	for _, p := range parts[1:] {
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
