package llm

import (
	"encoding/json"
	"strings"
)

// Metadata is the JSON object the metadata-extraction step asks the model
// for. Every field is optional; the zero value is a legal result.
type Metadata struct {
	Title           string   `json:"title"`
	Slug            string   `json:"slug"`
	Excerpt         string   `json:"excerpt"`
	MetaTitle       string   `json:"meta_title"`
	MetaDescription string   `json:"meta_description"`
	MetaKeywords    []string `json:"meta_keywords"`
	Tags            []string `json:"tags"`
}

// Empty reports whether extraction produced nothing usable.
func (m Metadata) Empty() bool {
	return m.Title == "" && m.Slug == "" && m.Excerpt == "" &&
		m.MetaTitle == "" && m.MetaDescription == "" &&
		len(m.MetaKeywords) == 0 && len(m.Tags) == 0
}

// ExtractMetadata pulls a metadata object out of free-form model output. It
// tolerates raw JSON, fenced code blocks (labeled json or not), and JSON
// embedded in surrounding prose. On total parse failure it returns the empty
// object; it never returns an error.
func ExtractMetadata(text string) Metadata {
	var meta Metadata
	_ = json.Unmarshal([]byte(extractJSON(text)), &meta)
	return meta
}

// extractJSON narrows free-form text to its best JSON candidate.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx != -1 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end != -1 {
			text = text[:end]
		}
	} else if strings.Contains(text, "```") {
		parts := strings.SplitN(text, "```", 3)
		if len(parts) >= 2 {
			text = parts[1]
		}
	}
	text = strings.TrimSpace(text)

	if json.Valid([]byte(text)) {
		return text
	}

	// Last resort: the substring between the first { and the last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		return text[start : end+1]
	}
	return ""
}
