package kickstart

import (
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

const zfcpCommand = "zfcp"

// handled lists commands whose options are parsed
var handled = map[string]bool{zfcpCommand: true}

type command struct {
	name    string
	line    int
	options map[string]string
	order   []string
}

// Parse reads kickstart input. Commands other than zfcp are recorded in
// Data.Unhandled; sections (%pre, %packages, ...) are skipped up to %end.
func Parse(input []byte) (*Data, error) {
	commands, err := parseCommands(input)
	if err != nil {
		return nil, err
	}
	data := &Data{}
	for _, cmd := range commands {
		switch cmd.name {
		case zfcpCommand:
			zfcp, err := newZFCPData(cmd)
			if err != nil {
				return nil, err
			}
			data.ZFCP = append(data.ZFCP, zfcp)
		default:
			data.Unhandled = append(data.Unhandled, cmd.name)
		}
	}
	return data, nil
}

func newZFCPData(cmd *command) (*ZFCPData, error) {
	ret := &ZFCPData{Line: cmd.line}
	for _, name := range cmd.order {
		value := cmd.options[name]
		switch name {
		case "devnum":
			ret.DevNum = value
		case "wwpn":
			ret.WWPN = value
		case "fcplun":
			ret.FCPLun = value
		default:
			return nil, fmt.Errorf("%w: line %d: zfcp does not support --%v", ErrSyntax, cmd.line, name)
		}
	}
	required := []struct{ name, value string }{{"devnum", ret.DevNum}, {"wwpn", ret.WWPN}, {"fcplun", ret.FCPLun}}
	for _, option := range required {
		if option.value == "" {
			return nil, fmt.Errorf("%w: line %d: zfcp requires --%v", ErrSyntax, cmd.line, option.name)
		}
	}
	return ret, nil
}

func parseCommands(input []byte) ([]*command, error) {
	cursor := parsly.NewCursor("", input, 0)
	var commands []*command
	line := 1
	inSection := false
	for cursor.Pos < cursor.InputSize {
		matched := cursor.MatchAny(blankToken, newLineToken, commentToken, wordToken)
		switch matched.Code {
		case blankToken.Code, commentToken.Code:
			continue
		case newLineToken.Code:
			line++
			continue
		case wordToken.Code:
		default:
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, cursor.NewError(wordToken))
		}
		name := matched.Text(cursor)
		switch {
		case inSection:
			if name == "%end" {
				inSection = false
			}
			skipLine(cursor)
			continue
		case strings.HasPrefix(name, "%"):
			inSection = name != "%end"
			skipLine(cursor)
			continue
		}
		cmd := &command{name: name, line: line, options: map[string]string{}}
		commands = append(commands, cmd)
		if !handled[name] {
			skipLine(cursor)
			continue
		}
		if err := parseOptions(cursor, cmd); err != nil {
			return nil, err
		}
	}
	if inSection {
		return nil, fmt.Errorf("%w: line %d: missing %%end", ErrSyntax, line)
	}
	return commands, nil
}

// parseOptions reads --name=value and --name value pairs up to the end of
// the line, which is left for the caller.
func parseOptions(cursor *parsly.Cursor, cmd *command) error {
	for cursor.Pos < cursor.InputSize {
		cursor.MatchOne(blankToken)
		if cursor.Pos >= cursor.InputSize {
			return nil
		}
		matched := cursor.MatchAny(optionToken, commentToken)
		switch matched.Code {
		case commentToken.Code:
			return nil
		case optionToken.Code:
		default:
			if cursor.Input[cursor.Pos] == '\n' {
				return nil
			}
			return fmt.Errorf("%w: line %d: %v expects --option, %v", ErrSyntax, cmd.line, cmd.name, cursor.NewError(optionToken))
		}
		name := strings.TrimPrefix(matched.Text(cursor), "--")
		if _, ok := cmd.options[name]; ok {
			return fmt.Errorf("%w: line %d: duplicate --%v", ErrSyntax, cmd.line, name)
		}
		value := ""
		if cursor.MatchOne(equalsToken).Code == equalsToken.Code {
			var ok bool
			if value, ok = matchValue(cursor); !ok {
				return fmt.Errorf("%w: line %d: --%v expects a value", ErrSyntax, cmd.line, name)
			}
		} else {
			cursor.MatchOne(blankToken)
			if !startsOption(cursor) {
				value, _ = matchValue(cursor)
			}
		}
		cmd.options[name] = value
		cmd.order = append(cmd.order, name)
	}
	return nil
}

func matchValue(cursor *parsly.Cursor) (string, bool) {
	if cursor.Pos >= cursor.InputSize {
		return "", false
	}
	matched := cursor.MatchAny(quotedToken, wordToken)
	switch matched.Code {
	case quotedToken.Code:
		text := matched.Text(cursor)
		return text[1 : len(text)-1], true
	case wordToken.Code:
		return matched.Text(cursor), true
	}
	return "", false
}

func startsOption(cursor *parsly.Cursor) bool {
	pos := cursor.Pos
	return pos+1 < cursor.InputSize && cursor.Input[pos] == '-' && cursor.Input[pos+1] == '-'
}

func skipLine(cursor *parsly.Cursor) {
	for cursor.Pos < cursor.InputSize && cursor.Input[cursor.Pos] != '\n' {
		cursor.Pos++
	}
}
