package wb

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// ParseEnumValues decodes a column's datatypeExplicitParams attribute,
// a parenthesized MySQL enum literal list like ('a','b','c'). The
// string is real MySQL type syntax, so it is handed to the MySQL
// parser wrapped in a probe statement instead of being split by hand.
func ParseEnumValues(params string) ([]string, error) {
	s := strings.TrimSpace(params)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("malformed enum literal list %q: missing parentheses", params)
	}

	stmt, err := parser.New().ParseOneStmt("CREATE TABLE enum_probe (v ENUM"+s+")", "", "")
	if err != nil {
		return nil, fmt.Errorf("malformed enum literal list %q: %v", params, err)
	}
	create, ok := stmt.(*ast.CreateTableStmt)
	if !ok || len(create.Cols) != 1 {
		return nil, fmt.Errorf("malformed enum literal list %q", params)
	}

	elems := create.Cols[0].Tp.GetElems()
	if len(elems) == 0 {
		return nil, fmt.Errorf("malformed enum literal list %q: no values", params)
	}
	values := make([]string, len(elems))
	for i, e := range elems {
		values[i] = strings.TrimSpace(e)
	}
	return values, nil
}
