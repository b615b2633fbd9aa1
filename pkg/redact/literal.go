package redact

import (
	"bytes"
	"io"
)

type literalRedactor struct {
	match      []byte
	mask       []byte
	redactName string
	tracker    *Tracker
}

// NewLiteralRedactor masks every occurrence of value.
func NewLiteralRedactor(value, name string, tracker *Tracker) Redactor {
	return &literalRedactor{
		match:      []byte(value),
		mask:       []byte(MASK_TEXT),
		redactName: name,
		tracker:    tracker,
	}
}

func (r *literalRedactor) Redact(input io.Reader, path string) io.Reader {
	return redactLines(input, func(line []byte, lineNum int) []byte {
		if len(r.match) == 0 || !bytes.Contains(line, r.match) {
			return line
		}

		clean := bytes.ReplaceAll(line, r.match, r.mask)
		r.tracker.add(Redaction{
			RedactorName:      r.redactName,
			CharactersRemoved: len(line) - len(clean),
			Occurrences:       bytes.Count(line, r.match),
			Line:              lineNum,
			File:              path,
		})
		return clean
	})
}
