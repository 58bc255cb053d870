package section

import (
	"log/slog"
	"strings"
)

// AssignContent gives each placed node the text from the first occurrence of
// its title up to the first occurrence of the next placed title. The last
// placed title has no successor and gets no content.
func AssignContent(f *Forest, text string, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	for i := 0; i+1 < len(f.Placed); i++ {
		cur := f.Node(f.Placed[i]).Title
		next := f.Node(f.Placed[i+1]).Title

		start := strings.Index(text, cur)
		end := strings.Index(text, next)
		if start < 0 || end < 0 {
			log.Warn("section title not in text", "title", cur, "next", next)
			continue
		}
		span := ""
		if end > start {
			span = text[start:end]
		}

		id, ok := f.Search(cur)
		if !ok {
			log.Warn("section not in tree", "title", cur)
			continue
		}
		n := f.Node(id)
		n.Content = span
		n.HasContent = true
	}
}
