package modelstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/samcharles93/hornvecs/internal/args"
	"github.com/samcharles93/hornvecs/internal/tensor"
	"github.com/samcharles93/hornvecs/internal/version"
)

const formatVersion = 1

const (
	matrixInput  = "input"
	matrixOutput = "output"
)

var (
	ErrNotModel    = errors.New("modelstore: not a hornvecs model file")
	ErrBadVersion  = errors.New("modelstore: unsupported model format version")
	ErrCorruptFile = errors.New("modelstore: corrupt model file")
)

const schema = `
CREATE TABLE meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE options (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	body TEXT NOT NULL -- JSON
);

CREATE TABLE entries (
	id INTEGER PRIMARY KEY,
	word TEXT NOT NULL UNIQUE,
	count INTEGER NOT NULL,
	kind INTEGER NOT NULL
);

-- dense rows, float32 blobs in sqlite-vec layout
CREATE TABLE rows (
	matrix TEXT NOT NULL,
	row INTEGER NOT NULL,
	vec BLOB NOT NULL,
	PRIMARY KEY (matrix, row)
);

-- int8 quantized rows with one float32 scale per block, or with the row
-- norm in place of the scales when the norm is quantized separately
CREATE TABLE qrows (
	matrix TEXT NOT NULL,
	row INTEGER NOT NULL,
	scales BLOB NOT NULL,
	codes BLOB NOT NULL,
	norm REAL,
	PRIMARY KEY (matrix, row)
);
`

var registerVec sync.Once

func openDB(dsn string) (*sql.DB, error) {
	registerVec.Do(sqlite_vec.Auto)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

// fileDSN builds an SQLite URI for path. The path is escaped so that '#',
// '?' and '%' in file names reach SQLite intact.
func fileDSN(path, mode string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	abs = filepath.ToSlash(abs)
	if !strings.HasPrefix(abs, "/") {
		abs = "/" + abs
	}
	u := &url.URL{Scheme: "file", Path: abs, RawQuery: url.Values{"mode": {mode}}.Encode()}
	return u.String(), nil
}

// Open reads a complete model file into memory.
func Open(ctx context.Context, path string) (*Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	dsn, err := fileDSN(path, "ro")
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	conn, err := openDB(dsn)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	meta, err := readMeta(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	v, err := strconv.Atoi(meta["format_version"])
	if err != nil || v != formatVersion {
		return nil, fmt.Errorf("model %s: %w (%q)", path, ErrBadVersion, meta["format_version"])
	}

	m := &Model{ID: meta["model_id"], CreatedBy: meta["created_by"]}

	var body string
	if err := conn.QueryRowContext(ctx, `SELECT body FROM options WHERE id = 1`).Scan(&body); err != nil {
		return nil, fmt.Errorf("model %s: options: %w", path, err)
	}
	m.Args = args.Default()
	if err := json.Unmarshal([]byte(body), m.Args); err != nil {
		return nil, fmt.Errorf("model %s: options: %w", path, err)
	}

	entries, err := readEntries(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	m.Dict, err = NewDictionary(entries, m.Args.Label, m.Args.Minn, m.Args.Maxn, m.Args.Bucket, m.Args.WordNgrams)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	if m.Input, err = readMatrix(ctx, conn, meta, matrixInput); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	if m.Output, err = readMatrix(ctx, conn, meta, matrixOutput); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

func readMeta(ctx context.Context, conn *sql.DB) (map[string]string, error) {
	rows, err := conn.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotModel, err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if _, ok := meta["format_version"]; !ok {
		return nil, ErrNotModel
	}
	return meta, nil
}

func readEntries(ctx context.Context, conn *sql.DB) ([]Entry, error) {
	rows, err := conn.QueryContext(ctx, `SELECT id, word, count, kind FROM entries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			id int
			e  Entry
		)
		if err := rows.Scan(&id, &e.Word, &e.Count, &e.Kind); err != nil {
			return nil, err
		}
		if id != len(entries) {
			return nil, fmt.Errorf("%w: entry ids are not contiguous at %d", ErrCorruptFile, id)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func readMatrix(ctx context.Context, conn *sql.DB, meta map[string]string, name string) (matrix, error) {
	r, err1 := strconv.Atoi(meta[name+".rows"])
	c, err2 := strconv.Atoi(meta[name+".cols"])
	block, err3 := strconv.Atoi(meta[name+".block"])
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, fmt.Errorf("%w: %s shape: %v", ErrCorruptFile, name, err)
	}
	if block > 0 {
		return readQuantized(ctx, conn, name, r, c, block, meta[name+".qnorm"] == "1")
	}

	// every stored blob must hold exactly c float32 values
	var bad int
	err := conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rows WHERE matrix = ? AND vec_length(vec) != ?`, name, c).Scan(&bad)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if bad > 0 {
		return nil, fmt.Errorf("%w: %d %s rows do not have %d columns", ErrCorruptFile, bad, name, c)
	}

	m := tensor.NewMat(r, c)
	rows, err := conn.QueryContext(ctx, `SELECT row, vec FROM rows WHERE matrix = ? ORDER BY row`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			i   int
			vec []byte
		)
		if err := rows.Scan(&i, &vec); err != nil {
			return nil, err
		}
		if i < 0 || i >= r {
			return nil, fmt.Errorf("%w: %s row %d out of range", ErrCorruptFile, name, i)
		}
		decodeFloat32(m.Row(i), vec)
	}
	return m, rows.Err()
}

func readQuantized(ctx context.Context, conn *sql.DB, name string, r, c, block int, qnorm bool) (matrix, error) {
	q := &tensor.QMat{R: r, C: c, BlockSize: block, Codes: make([]int8, r*c)}
	if qnorm {
		q.Norms = make([]float32, r)
	}
	bpr := q.BlocksPerRow()
	if !qnorm {
		q.Scales = make([]float32, r*bpr)
	}

	rows, err := conn.QueryContext(ctx, `SELECT row, scales, codes, norm FROM qrows WHERE matrix = ? ORDER BY row`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			i             int
			scales, codes []byte
			norm          sql.NullFloat64
		)
		if err := rows.Scan(&i, &scales, &codes, &norm); err != nil {
			return nil, err
		}
		if i < 0 || i >= r || len(scales) != 4*bpr || len(codes) != c || norm.Valid != qnorm {
			return nil, fmt.Errorf("%w: %s quantized row %d", ErrCorruptFile, name, i)
		}
		if qnorm {
			q.Norms[i] = float32(norm.Float64)
		}
		decodeFloat32(q.Scales[i*bpr:(i+1)*bpr], scales)
		for j, b := range codes {
			q.Codes[i*c+j] = int8(b)
		}
	}
	return q, rows.Err()
}

// Save writes m to path, replacing any existing file. A new model id is
// assigned on every save.
func Save(ctx context.Context, m *Model, path string) error {
	if err := m.check(); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := writeFile(ctx, m, tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

func writeFile(ctx context.Context, m *Model, path string) (err error) {
	dsn, err := fileDSN(path, "rwc")
	if err != nil {
		return err
	}
	conn, err := openDB(dsn)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	m.ID = uuid.NewString()
	m.CreatedBy = "hornvecs " + version.String()
	meta := map[string]string{
		"format_version": strconv.Itoa(formatVersion),
		"model_id":       m.ID,
		"created_by":     m.CreatedBy,
	}
	for name, mat := range map[string]matrix{matrixInput: m.Input, matrixOutput: m.Output} {
		r, c := mat.Shape()
		meta[name+".rows"] = strconv.Itoa(r)
		meta[name+".cols"] = strconv.Itoa(c)
		meta[name+".block"] = "0"
		if q, ok := mat.(*tensor.QMat); ok {
			meta[name+".block"] = strconv.Itoa(q.BlockSize)
			if q.Norms != nil {
				meta[name+".qnorm"] = "1"
			}
		}
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}

	body, err := json.Marshal(m.Args)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO options (id, body) VALUES (1, ?)`, string(body)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entries (id, word, count, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	for i, e := range m.Dict.Entries() {
		if _, err := stmt.ExecContext(ctx, i, e.Word, e.Count, int(e.Kind)); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if err := stmt.Close(); err != nil {
		return err
	}

	if err := writeMatrix(ctx, tx, matrixInput, m.Input); err != nil {
		return err
	}
	if err := writeMatrix(ctx, tx, matrixOutput, m.Output); err != nil {
		return err
	}
	return tx.Commit()
}

func writeMatrix(ctx context.Context, tx *sql.Tx, name string, mat matrix) error {
	switch mat := mat.(type) {
	case *tensor.Mat:
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO rows (matrix, row, vec) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i := 0; i < mat.R; i++ {
			blob, err := sqlite_vec.SerializeFloat32(mat.Row(i))
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, name, i, blob); err != nil {
				return err
			}
		}
		return nil
	case *tensor.QMat:
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO qrows (matrix, row, scales, codes, norm) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		bpr := mat.BlocksPerRow()
		for i := 0; i < mat.R; i++ {
			scales, err := sqlite_vec.SerializeFloat32(mat.Scales[i*bpr : (i+1)*bpr])
			if err != nil {
				return err
			}
			if scales == nil {
				scales = []byte{}
			}
			codes := make([]byte, mat.C)
			for j, c := range mat.Codes[i*mat.C : (i+1)*mat.C] {
				codes[j] = byte(c)
			}
			var norm any
			if mat.Norms != nil {
				norm = float64(mat.Norms[i])
			}
			if _, err := stmt.ExecContext(ctx, name, i, scales, codes, norm); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("save %s: unsupported matrix type %T", name, mat)
	}
}

// decodeFloat32 reads little-endian float32 values, the sqlite-vec blob layout.
func decodeFloat32(dst []float32, blob []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
}
