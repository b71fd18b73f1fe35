// Package edits extracts FILE_EDIT directives from assistant replies and
// applies them to a project tree.
package edits

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// StartMarker opens a directive; the rest of its line is the target path.
	StartMarker = "FILE_EDIT: "
	// EndMarker closes a directive.
	EndMarker = "END_FILE_EDIT"
)

// ErrUnterminated reports a directive that was opened but never closed.
var ErrUnterminated = errors.New("unterminated FILE_EDIT directive")

// Span is a half-open byte range [Start, End) in the parsed text.
type Span struct {
	Start int
	End   int
}

// Instruction is one full-file replacement requested by the assistant.
// Path is untrusted and must go through workspace.Resolve before use.
type Instruction struct {
	Path    string
	Content string
	// Span covers the directive from the start marker through the end marker.
	Span Span
}

// ParseResult is the outcome of scanning one reply.
type ParseResult struct {
	Instructions []Instruction
	// Unterminated is the offset of a directive with no end, or -1.
	// Parsing stops there; nothing after it is considered.
	Unterminated int
}

// Err returns an *UnterminatedError if parsing stopped early, else nil.
func (r ParseResult) Err() error {
	if r.Unterminated < 0 {
		return nil
	}
	return &UnterminatedError{Offset: r.Unterminated}
}

// UnterminatedError carries the offset of the unclosed directive.
type UnterminatedError struct {
	Offset int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("%s at offset %d", ErrUnterminated, e.Offset)
}

func (e *UnterminatedError) Unwrap() error {
	return ErrUnterminated
}

type parseState int

const (
	stateScanning parseState = iota
	stateInPath
	stateInContent
)

// Parse returns every well-formed directive in text, in document order.
func Parse(text string) []Instruction {
	return ParseDetailed(text).Instructions
}

// ParseDetailed scans text with a three-state machine:
//
//	Scanning  -> find StartMarker, or finish
//	InPath    -> the rest of that line, trimmed, is the path
//	InContent -> everything up to the next EndMarker, trimmed, is the content
//
// A start marker whose line never ends, or whose content never reaches an
// EndMarker, stops the scan. Directives before it are kept; nothing after it
// is recovered. A StartMarker appearing inside content is plain content.
func ParseDetailed(text string) ParseResult {
	res := ParseResult{Unterminated: -1}

	state := stateScanning
	pos := 0
	var markerStart, contentStart int
	var path string

	for {
		switch state {
		case stateScanning:
			idx := strings.Index(text[pos:], StartMarker)
			if idx < 0 {
				return res
			}
			markerStart = pos + idx
			pos = markerStart + len(StartMarker)
			state = stateInPath

		case stateInPath:
			nl := strings.IndexByte(text[pos:], '\n')
			if nl < 0 {
				res.Unterminated = markerStart
				return res
			}
			path = strings.TrimSpace(text[pos : pos+nl])
			contentStart = pos + nl + 1
			state = stateInContent

		case stateInContent:
			end := strings.Index(text[contentStart:], EndMarker)
			if end < 0 {
				res.Unterminated = markerStart
				return res
			}
			spanEnd := contentStart + end + len(EndMarker)
			res.Instructions = append(res.Instructions, Instruction{
				Path:    path,
				Content: strings.TrimSpace(text[contentStart : contentStart+end]),
				Span:    Span{Start: markerStart, End: spanEnd},
			})
			pos = spanEnd
			state = stateScanning
		}
	}
}
