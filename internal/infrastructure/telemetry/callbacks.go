package telemetry

import (
	"strings"

	"gorm.io/gorm"
)

// gormOperations are the GORM callback chains instrumented by the database
// plugins, keyed to the SQL verb they issue ("" when it must be read from
// the statement)
var gormOperations = []struct {
	chain string
	verb  string
}{
	{"create", "INSERT"},
	{"query", "SELECT"},
	{"update", "UPDATE"},
	{"delete", "DELETE"},
	{"row", ""},
	{"raw", ""},
}

type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

// hook returns the registrar placed just before or after gorm:<chain>
func hook(db *gorm.DB, chain string, after bool) callbackRegistrar {
	cb := db.Callback()
	anchor := "gorm:" + chain
	switch chain {
	case "create":
		if after {
			return cb.Create().After(anchor)
		}
		return cb.Create().Before(anchor)
	case "query":
		if after {
			return cb.Query().After(anchor)
		}
		return cb.Query().Before(anchor)
	case "update":
		if after {
			return cb.Update().After(anchor)
		}
		return cb.Update().Before(anchor)
	case "delete":
		if after {
			return cb.Delete().After(anchor)
		}
		return cb.Delete().Before(anchor)
	case "row":
		if after {
			return cb.Row().After(anchor)
		}
		return cb.Row().Before(anchor)
	default:
		if after {
			return cb.Raw().After(anchor)
		}
		return cb.Raw().Before(anchor)
	}
}

// registerAround installs before and after on every instrumented chain
// under the names <prefix>:before_<chain> and <prefix>:after_<chain>.
// after receives the SQL verb of the chain.
func registerAround(db *gorm.DB, prefix string, before func(*gorm.DB), after func(db *gorm.DB, verb string)) error {
	for _, op := range gormOperations {
		verb := op.verb
		if err := hook(db, op.chain, false).Register(prefix+":before_"+op.chain, before); err != nil {
			return err
		}
		afterFn := func(tx *gorm.DB) {
			v := verb
			if v == "" {
				v = detectOperationType(tx.Statement.SQL.String())
			}
			after(tx, v)
		}
		if err := hook(db, op.chain, true).Register(prefix+":after_"+op.chain, afterFn); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType reads the SQL verb from a raw statement
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}
