package serializer

import (
	"database/sql"
	"os"
	"strconv"

	"github.com/apex/log"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hzeller/tooldb/tooldb"
)

func init() {
	Register("sqlite", NewSQLite)
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS library (
	id    TEXT PRIMARY KEY,
	label TEXT NOT NULL UNIQUE,
	ord   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS tool (
	id    TEXT PRIMARY KEY,
	label TEXT NOT NULL,
	shape TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS library_tool (
	library_id TEXT NOT NULL REFERENCES library(id),
	tool_id    TEXT NOT NULL UNIQUE REFERENCES tool(id),
	pocket     INTEGER NOT NULL,
	UNIQUE (library_id, pocket)
);
CREATE TABLE IF NOT EXISTS tool_param (
	tool_id TEXT NOT NULL REFERENCES tool(id),
	name    TEXT NOT NULL,
	type    TEXT NOT NULL,
	value   TEXT NOT NULL,
	PRIMARY KEY (tool_id, name)
);`

// Kinds stored in tool_param.type.
const (
	paramString = "string"
	paramFloat  = "float"
	paramInt    = "int"
	paramBool   = "bool"
)

// SQLite keeps the database in a sqlite3 file. Save replaces the contents
// in one transaction.
type SQLite struct {
	path string
}

func NewSQLite(path string) (tooldb.Serializer, error) {
	return &SQLite{path: path}, nil
}

func (s *SQLite) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, ioError(err, "open %s", s.path)
	}
	return db, nil
}

// checkSchema makes sure an existing file is a tool database without
// changing it.
func (s *SQLite) checkSchema(db *sql.DB) error {
	var tables int
	err := db.QueryRow("SELECT count(*) FROM sqlite_master WHERE type = 'table'" +
		" AND name IN ('library', 'tool', 'library_tool', 'tool_param')").Scan(&tables)
	if err != nil {
		return formatError("%s is not a sqlite database: %v", s.path, err)
	}
	if tables != 4 {
		return formatError("%s is not a tool database", s.path)
	}
	return nil
}

// sqliteReader holds the prepared statements used while loading.
type sqliteReader struct {
	libraries *sql.Stmt
	tools     *sql.Stmt
	params    *sql.Stmt
}

func newSqliteReader(db *sql.DB) (*sqliteReader, error) {
	libraries, err := db.Prepare("SELECT id, label FROM library ORDER BY ord")
	if err != nil {
		return nil, err
	}
	tools, err := db.Prepare("SELECT t.id, t.label, t.shape, lt.pocket" +
		" FROM library_tool lt JOIN tool t ON t.id = lt.tool_id" +
		" WHERE lt.library_id = $1 ORDER BY lt.pocket")
	if err != nil {
		return nil, err
	}
	params, err := db.Prepare("SELECT name, type, value FROM tool_param WHERE tool_id = $1")
	if err != nil {
		return nil, err
	}
	return &sqliteReader{libraries: libraries, tools: tools, params: params}, nil
}

func (s *SQLite) Load() (*tooldb.Snapshot, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return &tooldb.Snapshot{}, nil
	}
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	if err := s.checkSchema(db); err != nil {
		return nil, err
	}
	r, err := newSqliteReader(db)
	if err != nil {
		return nil, ioError(err, "prepare")
	}

	snap := &tooldb.Snapshot{}
	rows, err := r.libraries.Query()
	if err != nil {
		return nil, ioError(err, "read libraries")
	}
	for rows.Next() {
		var lib tooldb.SnapshotLibrary
		if err := rows.Scan(&lib.ID, &lib.Label); err != nil {
			rows.Close()
			return nil, ioError(err, "read libraries")
		}
		snap.Libraries = append(snap.Libraries, lib)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, ioError(err, "read libraries")
	}

	for i := range snap.Libraries {
		lib := &snap.Libraries[i]
		if lib.Tools, err = r.readTools(lib.ID); err != nil {
			return nil, err
		}
	}
	log.WithFields(log.Fields{
		"path":      s.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Read sqlite database")
	return snap, nil
}

func (r *sqliteReader) readTools(libraryID string) ([]tooldb.SnapshotTool, error) {
	rows, err := r.tools.Query(libraryID)
	if err != nil {
		return nil, ioError(err, "read tools")
	}
	var result []tooldb.SnapshotTool
	for rows.Next() {
		var st tooldb.SnapshotTool
		if err := rows.Scan(&st.Tool.ID, &st.Tool.Label, &st.Tool.Shape, &st.Pocket); err != nil {
			rows.Close()
			return nil, ioError(err, "read tools")
		}
		result = append(result, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, ioError(err, "read tools")
	}
	for i := range result {
		if result[i].Tool.Params, err = r.readParams(result[i].Tool.ID); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *sqliteReader) readParams(toolID string) (tooldb.Params, error) {
	rows, err := r.params.Query(toolID)
	if err != nil {
		return nil, ioError(err, "read parameters")
	}
	defer rows.Close()
	params := make(tooldb.Params)
	for rows.Next() {
		var name, kind, value string
		if err := rows.Scan(&name, &kind, &value); err != nil {
			return nil, ioError(err, "read parameters")
		}
		v, err := decodeParam(kind, value)
		if err != nil {
			return nil, formatError("tool %s parameter %s: %v", toolID, name, err)
		}
		params[name] = v
	}
	if err := rows.Err(); err != nil {
		return nil, ioError(err, "read parameters")
	}
	return params, nil
}

func decodeParam(kind, value string) (any, error) {
	switch kind {
	case paramString:
		return value, nil
	case paramFloat:
		return strconv.ParseFloat(value, 64)
	case paramInt:
		return strconv.ParseInt(value, 10, 64)
	case paramBool:
		return strconv.ParseBool(value)
	}
	return nil, unsupported("parameter type %q", kind)
}

func encodeParam(v any) (kind, value string, err error) {
	switch x := v.(type) {
	case string:
		return paramString, x, nil
	case float64:
		return paramFloat, strconv.FormatFloat(x, 'g', -1, 64), nil
	case int64:
		return paramInt, strconv.FormatInt(x, 10), nil
	case bool:
		return paramBool, strconv.FormatBool(x), nil
	}
	nv, err := tooldb.NormalizeValue(v)
	if err != nil {
		return "", "", err
	}
	return encodeParam(nv)
}

func (s *SQLite) Save(snap *tooldb.Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return err
	}
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()
	if _, err := db.Exec(sqliteSchema); err != nil {
		return formatError("%s is not a tool database: %v", s.path, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return ioError(err, "begin transaction")
	}
	if err := saveTx(tx, snap); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return ioError(err, "commit")
	}
	log.WithFields(log.Fields{
		"path":      s.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Wrote sqlite database")
	return nil
}

func saveTx(tx *sql.Tx, snap *tooldb.Snapshot) error {
	for _, table := range []string{"tool_param", "library_tool", "tool", "library"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return ioError(err, "clear %s", table)
		}
	}
	insertLibrary, err := tx.Prepare("INSERT INTO library (id, label, ord) VALUES ($1, $2, $3)")
	if err != nil {
		return ioError(err, "prepare")
	}
	insertTool, err := tx.Prepare("INSERT INTO tool (id, label, shape) VALUES ($1, $2, $3)")
	if err != nil {
		return ioError(err, "prepare")
	}
	insertOwner, err := tx.Prepare("INSERT INTO library_tool (library_id, tool_id, pocket) VALUES ($1, $2, $3)")
	if err != nil {
		return ioError(err, "prepare")
	}
	insertParam, err := tx.Prepare("INSERT INTO tool_param (tool_id, name, type, value) VALUES ($1, $2, $3, $4)")
	if err != nil {
		return ioError(err, "prepare")
	}

	for ord, lib := range snap.Libraries {
		if _, err := insertLibrary.Exec(lib.ID, lib.Label, ord); err != nil {
			return ioError(err, "insert library %q", lib.Label)
		}
		for _, st := range lib.Tools {
			t := &st.Tool
			if _, err := insertTool.Exec(t.ID, t.Label, t.Shape); err != nil {
				return ioError(err, "insert tool %s", t.ID)
			}
			if _, err := insertOwner.Exec(lib.ID, t.ID, st.Pocket); err != nil {
				return ioError(err, "insert tool %s into %q", t.ID, lib.Label)
			}
			for _, name := range t.Params.Names() {
				kind, value, err := encodeParam(t.Params[name])
				if err != nil {
					return unsupported("tool %s parameter %s: %v", t.ID, name, err)
				}
				if _, err := insertParam.Exec(t.ID, name, kind, value); err != nil {
					return ioError(err, "insert tool %s parameter %s", t.ID, name)
				}
			}
		}
	}
	return nil
}
