package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the go-sqlite3 driver with the notepad SQL functions:
//
//	fold(text)       Unicode lower-casing, as core.Predicate matches
//	COLLATE FOLD     ordering by folded text, as core.SortNotes orders titles
const DriverName = "sqlite3_notepad"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			if err := conn.RegisterFunc("fold", fold, true); err != nil {
				return fmt.Errorf("register fold SQL function: %w", err)
			}
			if err := conn.RegisterCollation("FOLD", compareFolded); err != nil {
				return fmt.Errorf("register FOLD collation: %w", err)
			}
			return nil
		},
	})
}

func fold(s string) string {
	return strings.ToLower(s)
}

func compareFolded(a, b string) int {
	return strings.Compare(fold(a), fold(b))
}
