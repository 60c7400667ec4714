package validate

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Metadata is the subset of the tool's JSON the validator looks at.
type Metadata struct {
	Type           string
	Title          string
	Duration       float64
	TrackCount     int
	AvailableCount int
	Collection     bool
	Unavailable    bool
	Raw            string
}

var collectionTypes = map[string]bool{
	"album":    true,
	"playlist": true,
	"artist":   true,
}

// ParseMetadata reads a single JSON document or JSON lines (one document per
// entry, as yt-dlp prints for playlists). ok is false when nothing parses.
func ParseMetadata(stdout string) (meta Metadata, ok bool) {
	text := strings.TrimSpace(stdout)
	if text == "" {
		return Metadata{}, false
	}
	if gjson.Valid(text) && gjson.Parse(text).IsObject() {
		return fromDocument(gjson.Parse(text), text), true
	}

	var docs []gjson.Result
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !gjson.Valid(line) || !gjson.Parse(line).IsObject() {
			return Metadata{}, false
		}
		docs = append(docs, gjson.Parse(line))
	}
	if len(docs) == 0 {
		return Metadata{}, false
	}
	return fromEntries(docs, text), true
}

func fromDocument(doc gjson.Result, raw string) Metadata {
	meta := Metadata{
		Type:        strings.ToLower(firstString(doc, "type", "_type")),
		Title:       firstString(doc, "name", "title"),
		Duration:    doc.Get("duration").Float(),
		Unavailable: isUnavailable(doc),
		Raw:         raw,
	}
	tracks := doc.Get("tracks")
	if !tracks.IsArray() {
		tracks = doc.Get("entries")
	}
	meta.Collection = collectionTypes[meta.Type] || tracks.IsArray()
	if meta.Collection {
		tracks.ForEach(func(_, t gjson.Result) bool {
			meta.TrackCount++
			if trackAvailable(t) {
				meta.AvailableCount++
			}
			return true
		})
		if meta.Type == "" || meta.Type == "multi_video" {
			meta.Type = "playlist"
		}
	}
	return meta
}

func fromEntries(docs []gjson.Result, raw string) Metadata {
	first := docs[0]
	meta := Metadata{
		Type:       "playlist",
		Title:      firstString(first, "playlist_title", "playlist", "album", "name", "title"),
		Collection: true,
		TrackCount: len(docs),
		Raw:        raw,
	}
	for _, d := range docs {
		if trackAvailable(d) {
			meta.AvailableCount++
		}
	}
	return meta
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(doc.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}

func isUnavailable(doc gjson.Result) bool {
	switch strings.ToLower(doc.Get("availability").String()) {
	case "unavailable", "private":
		return true
	}
	return false
}

// trackAvailable treats a missing "available" flag as available.
func trackAvailable(t gjson.Result) bool {
	if a := t.Get("available"); a.Exists() && !a.Bool() {
		return false
	}
	return !isUnavailable(t)
}

// Summary describes a collection for status lines.
func (m Metadata) Summary() string {
	if m.Collection {
		return fmt.Sprintf("%s available (%d/%d tracks)", m.Type, m.AvailableCount, m.TrackCount)
	}
	return fmt.Sprintf("track available: %s", m.Title)
}
