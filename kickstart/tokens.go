package kickstart

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	blankCode = iota
	newLineCode
	commentCode
	optionCode
	equalsCode
	quotedCode
	wordCode
)

// Token definitions
var (
	blankToken   = parsly.NewToken(blankCode, "Blank", &blankMatcher{})
	newLineToken = parsly.NewToken(newLineCode, "NewLine", matcher.NewByte('\n'))
	commentToken = parsly.NewToken(commentCode, "Comment", &commentMatcher{})
	optionToken  = parsly.NewToken(optionCode, "Option", &optionMatcher{})
	equalsToken  = parsly.NewToken(equalsCode, "=", matcher.NewByte('='))
	quotedToken  = parsly.NewToken(quotedCode, "Quoted", &quotedMatcher{})
	wordToken    = parsly.NewToken(wordCode, "Word", &wordMatcher{})
)

// blankMatcher matches spaces, tabs and carriage returns but not new lines
type blankMatcher struct{}

func (m *blankMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		switch cursor.Input[i] {
		case ' ', '\t', '\r':
			matched++
			continue
		}
		break
	}
	return matched
}

// commentMatcher matches # up to the end of the line
type commentMatcher struct{}

func (m *commentMatcher) Match(cursor *parsly.Cursor) int {
	if cursor.Pos >= cursor.InputSize || cursor.Input[cursor.Pos] != '#' {
		return 0
	}
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize && cursor.Input[i] != '\n'; i++ {
		matched++
	}
	return matched
}

// optionMatcher matches --name
type optionMatcher struct{}

func (m *optionMatcher) Match(cursor *parsly.Cursor) int {
	input, pos, size := cursor.Input, cursor.Pos, cursor.InputSize
	if pos+2 >= size || input[pos] != '-' || input[pos+1] != '-' {
		return 0
	}
	matched := 2
	for i := pos + 2; i < size; i++ {
		if isNameByte(input[i]) {
			matched++
			continue
		}
		break
	}
	if matched == 2 {
		return 0
	}
	return matched
}

// quotedMatcher matches a double quoted value on a single line
type quotedMatcher struct{}

func (m *quotedMatcher) Match(cursor *parsly.Cursor) int {
	input, pos, size := cursor.Input, cursor.Pos, cursor.InputSize
	if pos >= size || input[pos] != '"' {
		return 0
	}
	for i := pos + 1; i < size; i++ {
		switch input[i] {
		case '"':
			return i - pos + 1
		case '\n':
			return 0
		}
	}
	return 0
}

// wordMatcher matches a bare value up to white space
type wordMatcher struct{}

func (m *wordMatcher) Match(cursor *parsly.Cursor) int {
	matched := 0
	for i := cursor.Pos; i < cursor.InputSize; i++ {
		switch cursor.Input[i] {
		case ' ', '\t', '\r', '\n':
			return matched
		}
		matched++
	}
	return matched
}

func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}
