package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. The text is kept as is apart from
// line-ending normalization, since title detection depends on indentation.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &Document{
		Title: trimExt(filename, ".txt"),
		Text:  text,
	}, nil
}
