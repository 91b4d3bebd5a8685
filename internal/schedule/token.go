package schedule

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	footnoteMark  = "**"
	roomKeyword   = "sala"
	toBeDefined   = "adefinir"
	displayTBD    = "?"
	displaySep    = " - "
	roomDisplayed = "Sala"
)

// Token is one person entry found in a cell.
type Token struct {
	Text     string // whitespace removed, unbalanced '(' closed
	Name     string // normalized
	Footnote bool   // "**" directly after the name
	Room     string // inline "(Sala ...)" designator, e.g. "Sala 203"
	HasRoom  bool
}

// CellEntries is the result of scanning one data cell.
type CellEntries struct {
	Tokens []Token
	// Fallback is the trailing "- Sala ..." designator of the cell, applied to
	// tokens that carry no room of their own. Empty when absent.
	Fallback string
	// Dropped holds fragments that did not start with a name.
	Dropped []string
}

// NormalizeName strips "**" markers and surrounding whitespace.
func NormalizeName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, footnoteMark, ""))
}

// ScanCell splits a cell into person tokens. Entries are separated by '/' or
// by a closing parenthesis; all whitespace is removed before splitting, so
// "Ana (Sala 2) João" yields "Ana(Sala2)" and "João".
func ScanCell(text string) CellEntries {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return CellEntries{}
	}

	out := CellEntries{Fallback: trailingRoom(trimmed)}

	for _, frag := range splitEntries(removeSpace(trimmed)) {
		tok, ok := scanToken(frag)
		if !ok {
			out.Dropped = append(out.Dropped, frag)
			continue
		}
		out.Tokens = append(out.Tokens, tok)
	}
	return out
}

// Display renders the schedule string for tok at slot. A footnote wins over
// any room; an inline room wins over the cell fallback.
func (tok Token) Display(slot, fallback string) string {
	switch {
	case tok.Footnote:
		return slot + displaySep + footnoteMark
	case tok.HasRoom && !isToBeDefined(tok.Room):
		return slot + displaySep + tok.Room
	case !tok.HasRoom && fallback != "":
		return slot + displaySep + fallback
	case isToBeDefined(tok.Text):
		return slot + displaySep + displayTBD
	default:
		return slot
	}
}

func scanToken(frag string) (Token, bool) {
	name, rest := leadingWord(frag)
	if name == "" {
		return Token{}, false
	}

	text := frag
	if strings.Contains(text, "(") && !strings.Contains(text, ")") {
		text += ")"
	}

	tok := Token{
		Text:     text,
		Name:     NormalizeName(name),
		Footnote: strings.HasPrefix(rest, footnoteMark),
	}
	tok.Room, tok.HasRoom = inlineRoom(text)
	return tok, true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// leadingWord returns the run of word characters at the start of s and what
// follows it.
func leadingWord(s string) (word, rest string) {
	end := 0
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isWordRune(r) {
			break
		}
		end += size
	}
	return s[:end], s[end:]
}

func removeSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func splitEntries(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ')'
	})
}

// inlineRoom finds the first "(Sala<x>)" in s, case-insensitively, where <x>
// is at least one character other than ')'.
func inlineRoom(s string) (string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] != '(' {
			continue
		}
		body := s[i+1:]
		if !hasPrefixFold(body, roomKeyword) {
			continue
		}
		end := strings.IndexByte(body, ')')
		if end <= len(roomKeyword) {
			continue
		}
		return formatRoom(body[:end]), true
	}
	return "", false
}

// trailingRoom finds a "- Sala<rest>" designator running to the end of the
// cell, case-insensitively. The first qualifying '-' wins.
func trailingRoom(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		rest := strings.TrimLeftFunc(s[i+1:], unicode.IsSpace)
		if !hasPrefixFold(rest, roomKeyword) || len(rest) == len(roomKeyword) {
			continue
		}
		if strings.ContainsAny(rest, "\r\n") {
			continue
		}
		return formatRoom(rest)
	}
	return ""
}

// formatRoom rewrites "sala203" or "Sala  203" as "Sala 203".
func formatRoom(designator string) string {
	rest := strings.TrimSpace(designator[len(roomKeyword):])
	if rest == "" {
		return roomDisplayed
	}
	return roomDisplayed + " " + rest
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func isToBeDefined(s string) bool {
	return strings.Contains(strings.ToLower(removeSpace(s)), toBeDefined)
}
