package redact

import (
	"io"
	"regexp"

	"github.com/pkg/errors"
)

// SingleLineRedactor masks the named groups of a regular expression on every
// line it matches. Every part of a match must be inside a group or it is lost.
type SingleLineRedactor struct {
	re         *regexp.Regexp
	substStr   []byte
	maskText   string
	maskGroups []int
	redactName string
	isDefault  bool
	tracker    *Tracker
}

func NewSingleLineRedactor(re, maskText, name string, tracker *Tracker) (*SingleLineRedactor, error) {
	compiled, err := regexp.Compile(re)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile redactor %s", name)
	}
	maskGroups := []int{}
	for i, group := range compiled.SubexpNames() {
		if group == "mask" {
			maskGroups = append(maskGroups, i)
		}
	}
	return &SingleLineRedactor{
		re:         compiled,
		substStr:   []byte(getReplacementPattern(compiled, maskText)),
		maskText:   maskText,
		maskGroups: maskGroups,
		redactName: name,
		tracker:    tracker,
	}, nil
}

func (r *SingleLineRedactor) Redact(input io.Reader, path string) io.Reader {
	return redactLines(input, func(line []byte, lineNum int) []byte {
		matches := r.re.FindAllSubmatchIndex(line, -1)
		if matches == nil {
			return line
		}

		clean := make([]byte, 0, len(line))
		last, occurrences := 0, 0
		for _, match := range matches {
			clean = append(clean, line[last:match[0]]...)
			if r.alreadyMasked(line, match) {
				clean = append(clean, line[match[0]:match[1]]...)
			} else {
				clean = r.re.Expand(clean, r.substStr, line, match)
				occurrences++
			}
			last = match[1]
		}
		if occurrences == 0 {
			return line
		}
		clean = append(clean, line[last:]...)

		r.tracker.add(Redaction{
			RedactorName:      r.redactName,
			CharactersRemoved: len(line) - len(clean),
			Occurrences:       occurrences,
			Line:              lineNum,
			File:              path,
			IsDefaultRedactor: r.isDefault,
		})
		return clean
	})
}

// alreadyMasked reports whether every mask group of match holds the mask text,
// as left behind by an earlier redactor.
func (r *SingleLineRedactor) alreadyMasked(line []byte, match []int) bool {
	if len(r.maskGroups) == 0 {
		return false
	}
	for _, group := range r.maskGroups {
		start, end := match[2*group], match[2*group+1]
		if start < 0 || string(line[start:end]) != r.maskText {
			return false
		}
	}
	return true
}
