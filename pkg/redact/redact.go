package redact

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sync"

	"github.com/pkg/errors"
)

const (
	MASK_TEXT = "***HIDDEN***"
)

// Redactor masks sensitive values in a stream. path names the stream in the
// redactions it records.
type Redactor interface {
	Redact(input io.Reader, path string) io.Reader
}

// Redaction records one line changed by a redactor and how many values it masked there.
type Redaction struct {
	RedactorName      string `json:"redactorName"`
	CharactersRemoved int    `json:"charactersRemoved"`
	Occurrences       int    `json:"occurrences"`
	Line              int    `json:"line"`
	File              string `json:"file"`
	IsDefaultRedactor bool   `json:"isDefaultRedactor"`
}

type RedactionList struct {
	ByRedactor map[string][]Redaction `json:"byRedactor"`
	ByFile     map[string][]Redaction `json:"byFile"`
}

// Tracker collects the redactions made by a set of redactors. It is safe for
// concurrent use.
type Tracker struct {
	mu   sync.Mutex
	list RedactionList
}

func NewTracker() *Tracker {
	return &Tracker{
		list: RedactionList{
			ByRedactor: map[string][]Redaction{},
			ByFile:     map[string][]Redaction{},
		},
	}
}

func (t *Tracker) add(r Redaction) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.list.ByRedactor[r.RedactorName] = append(t.list.ByRedactor[r.RedactorName], r)
	t.list.ByFile[r.File] = append(t.list.ByFile[r.File], r)
}

// List returns a copy of the redactions recorded so far.
func (t *Tracker) List() RedactionList {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := RedactionList{
		ByRedactor: make(map[string][]Redaction, len(t.list.ByRedactor)),
		ByFile:     make(map[string][]Redaction, len(t.list.ByFile)),
	}
	for k, v := range t.list.ByRedactor {
		out.ByRedactor[k] = append([]Redaction(nil), v...)
	}
	for k, v := range t.list.ByFile {
		out.ByFile[k] = append([]Redaction(nil), v...)
	}
	return out
}

// CountFile returns the number of values masked in path.
func (t *Tracker) CountFile(path string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, r := range t.list.ByFile[path] {
		count += r.Occurrences
	}
	return count
}

// Redact runs input through every redactor in order.
func Redact(input []byte, path string, redactors []Redactor) ([]byte, error) {
	nextReader := io.Reader(bytes.NewReader(input))
	for _, r := range redactors {
		nextReader = r.Redact(nextReader, path)
	}

	redacted, err := io.ReadAll(nextReader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to redact %s", path)
	}
	return redacted, nil
}

// redactLines streams input to the returned reader one line at a time through
// clean. A missing final newline is preserved.
func redactLines(input io.Reader, clean func(line []byte, lineNum int) []byte) io.Reader {
	out, writer := io.Pipe()

	go func() {
		var err error
		defer func() {
			if err == io.EOF {
				writer.Close()
			} else {
				writer.CloseWithError(err)
			}
		}()

		reader := bufio.NewReader(input)
		lineNum := 0
		for {
			var (
				line       []byte
				hadNewline bool
			)
			line, hadNewline, err = readLine(reader)
			if len(line) > 0 || hadNewline {
				lineNum++
				if _, werr := writer.Write(clean(line, lineNum)); werr != nil {
					err = werr
					return
				}
				if hadNewline {
					if _, werr := writer.Write([]byte{'\n'}); werr != nil {
						err = werr
						return
					}
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

func readLine(r *bufio.Reader) ([]byte, bool, error) {
	line, err := r.ReadBytes('\n')
	if err == nil {
		return line[:len(line)-1], true, nil
	}
	return line, false, err
}

// getReplacementPattern builds the replacement for re: groups named mask are
// replaced by maskText, groups named drop are removed and all others are kept.
func getReplacementPattern(re *regexp.Regexp, maskText string) string {
	substStr := ""
	for i, name := range re.SubexpNames() {
		if i == 0 {
			continue
		}
		switch name {
		case "":
			substStr = fmt.Sprintf("%s${%d}", substStr, i)
		case "mask":
			substStr = fmt.Sprintf("%s%s", substStr, maskText)
		case "drop":
		default:
			substStr = fmt.Sprintf("%s${%s}", substStr, name)
		}
	}
	return substStr
}
