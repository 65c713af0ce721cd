package parser

import (
	"strings"
	"unicode"

	"github.com/tobsdb/tdblite/internal/types"
)

// Parse turns one command line into an Operation. It only extracts raw
// tokens; names, types and values are checked by whoever executes the result.
func Parse(line string) (Operation, error) {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimSuffix(line, ";"))
	if line == "" {
		return nil, types.NewParseError(types.UnknownCommand, "Empty command")
	}

	keyword, rest, ok := cutKeyword(line)
	if !ok {
		word, _ := cutWord(line)
		return nil, unknownCommandError(word)
	}

	switch OperationKind(strings.ToLower(keyword)) {
	case OpCreate:
		return parseCreate(rest)
	case OpDrop:
		table, err := parseTableOnly(OpDrop, rest)
		if err != nil {
			return nil, err
		}
		return DropOp{Table: table}, nil
	case OpList:
		if rest != "" {
			return nil, types.NewParseError(types.MalformedGrammar, "LIST takes no arguments")
		}
		return ListOp{}, nil
	case OpInsert:
		return parseInsert(rest)
	case OpSelect:
		return parseSelect(rest)
	case OpUpdate:
		return parseUpdate(rest)
	case OpDelete:
		return parseDelete(rest)
	case OpInfo:
		table, err := parseTableOnly(OpInfo, rest)
		if err != nil {
			return nil, err
		}
		return InfoOp{Table: table}, nil
	}

	return nil, unknownCommandError(keyword)
}

func unknownCommandError(keyword string) error {
	return types.NewParseError(types.UnknownCommand, "Unknown command: %s", keyword)
}

func missingTableError(kind OperationKind) error {
	return types.NewParseError(types.MalformedGrammar, "%s: missing table name", strings.ToUpper(string(kind)))
}

func parseTableOnly(kind OperationKind, rest string) (string, error) {
	table, extra := cutWord(rest)
	if table == "" {
		return "", missingTableError(kind)
	}
	if extra != "" {
		return "", types.NewParseError(
			types.MalformedGrammar,
			"%s: unexpected input after table name: %s", strings.ToUpper(string(kind)), extra,
		)
	}
	return table, nil
}

// parenthesized returns what's inside s when s is "( ... )".
func parenthesized(kind OperationKind, s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return "", types.NewParseError(types.MalformedGrammar, "%s: expected (", strings.ToUpper(string(kind)))
	}
	if len(s) < 2 || !strings.HasSuffix(s, ")") {
		return "", types.NewParseError(types.MalformedGrammar, "%s: expected ) at end of command", strings.ToUpper(string(kind)))
	}
	return s[1 : len(s)-1], nil
}

func parseCreate(rest string) (Operation, error) {
	open := strings.IndexByte(rest, '(')
	if open < 0 {
		return nil, types.NewParseError(types.MalformedGrammar, "CREATE expects <table> (<column>:<type>, ...)")
	}

	table := strings.TrimSpace(rest[:open])
	if table == "" {
		return nil, missingTableError(OpCreate)
	}
	if strings.IndexFunc(table, unicode.IsSpace) >= 0 {
		return nil, types.NewParseError(types.MalformedGrammar, "Table name cannot include space")
	}

	inner, err := parenthesized(OpCreate, rest[open:])
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if strings.TrimSpace(inner) != "" {
		for _, def := range strings.Split(inner, ",") {
			columns = append(columns, strings.TrimSpace(def))
		}
	}

	return CreateOp{Table: table, Columns: columns}, nil
}

func parseInsert(rest string) (Operation, error) {
	table, after := cutWord(rest)
	if table == "" {
		return nil, missingTableError(OpInsert)
	}

	kw, body, ok := cutKeyword(after)
	if !ok || !strings.EqualFold(kw, "values") {
		return nil, types.NewParseError(types.MissingClause, "INSERT expects <table> VALUES (<value>, ...)")
	}

	inner, err := parenthesized(OpInsert, body)
	if err != nil {
		return nil, err
	}

	values, err := SplitValues(inner)
	if err != nil {
		return nil, err
	}

	return InsertOp{Table: table, Values: values}, nil
}

func parseSelect(rest string) (Operation, error) {
	table, after := cutWord(rest)
	if table == "" {
		return nil, missingTableError(OpSelect)
	}
	if after == "" {
		return SelectOp{Table: table}, nil
	}

	kw, cond, ok := cutKeyword(after)
	if !ok || !strings.EqualFold(kw, "where") {
		return nil, types.NewParseError(types.MalformedGrammar, "SELECT: unexpected input after table name: %s", after)
	}

	where, err := parseCondition(cond)
	if err != nil {
		return nil, err
	}
	return SelectOp{Table: table, Where: where}, nil
}

func parseUpdate(rest string) (Operation, error) {
	table, after := cutWord(rest)
	if table == "" {
		return nil, missingTableError(OpUpdate)
	}

	kw, body, ok := cutKeyword(after)
	if !ok || !strings.EqualFold(kw, "set") {
		return nil, types.NewParseError(types.MissingClause, "UPDATE expects <table> SET <column>=<value>, ... WHERE <column> = <value>")
	}

	// an open quote would hide WHERE from indexKeyword; report that instead
	if _, err := splitOutsideQuotes(body, ','); err != nil {
		return nil, err
	}

	where_idx := indexKeyword(body, "where")
	if where_idx < 0 {
		return nil, types.NewParseError(types.MissingClause, "UPDATE requires a WHERE clause")
	}

	set, err := parseAssignments(body[:where_idx])
	if err != nil {
		return nil, err
	}

	where, err := parseCondition(body[where_idx+len("where"):])
	if err != nil {
		return nil, err
	}

	return UpdateOp{Table: table, Set: set, Where: where}, nil
}

func parseDelete(rest string) (Operation, error) {
	table, after := cutWord(rest)
	if table == "" {
		return nil, missingTableError(OpDelete)
	}

	kw, cond, ok := cutKeyword(after)
	if !ok || !strings.EqualFold(kw, "where") {
		return nil, types.NewParseError(types.MissingClause, "DELETE requires a WHERE clause")
	}

	where, err := parseCondition(cond)
	if err != nil {
		return nil, err
	}
	return DeleteOp{Table: table, Where: where}, nil
}

// parseCondition reads a single `column = value`. Chaining is not supported.
func parseCondition(s string) (types.Clause, error) {
	parts, err := splitOutsideQuotes(s, '=')
	if err != nil {
		return nil, err
	}
	if len(parts) < 2 {
		return nil, types.NewParseError(types.MalformedGrammar, "WHERE expects <column> = <value>")
	}
	if len(parts) > 2 {
		return nil, types.NewParseError(types.MalformedGrammar, "WHERE supports a single <column> = <value> condition")
	}

	column, value := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if column == "" || value == "" {
		return nil, types.NewParseError(types.MalformedGrammar, "WHERE expects <column> = <value>")
	}
	if strings.IndexFunc(column, unicode.IsSpace) >= 0 {
		return nil, types.NewParseError(types.MalformedGrammar, "WHERE supports a single <column> = <value> condition")
	}

	return types.Clause{{Column: column, Value: finishToken(value)}}, nil
}

func parseAssignments(s string) ([]types.Assignment, error) {
	segments, err := splitOutsideQuotes(s, ',')
	if err != nil {
		return nil, err
	}

	set := make([]types.Assignment, 0, len(segments))
	for _, segment := range segments {
		kv, err := splitOutsideQuotes(segment, '=')
		if err != nil {
			return nil, err
		}
		if len(kv) != 2 {
			return nil, types.NewParseError(
				types.MalformedGrammar,
				"SET expects <column>=<value>, got %q", strings.TrimSpace(segment),
			)
		}
		column, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if column == "" || value == "" {
			return nil, types.NewParseError(
				types.MalformedGrammar,
				"SET expects <column>=<value>, got %q", strings.TrimSpace(segment),
			)
		}
		set = append(set, types.Assignment{Column: column, Value: finishToken(value)})
	}
	return set, nil
}
