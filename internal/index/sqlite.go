package index

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	_ "modernc.org/sqlite" // SQLite driver
)

const createChunksTable = `CREATE TABLE chunks (
	position  INTEGER PRIMARY KEY,
	chunk_id  TEXT NOT NULL,
	content   TEXT NOT NULL,
	metadata  TEXT NOT NULL,
	embedding BLOB NOT NULL
)`

func writeSQLite(path string, entries []Entry) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous index database: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(createChunksTable); err != nil {
		return fmt.Errorf("create chunks table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO chunks (position, chunk_id, content, metadata, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range entries {
		metadata, err := json.Marshal(entry.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("marshal metadata for %s: %w", entry.ChunkID, err)
		}
		if _, err := stmt.Exec(i, entry.ChunkID, entry.Content, string(metadata), float32SliceToBytes(entry.Embedding)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %s: %w", entry.ChunkID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index: %w", err)
	}
	return nil
}

func readSQLite(path string) ([]Entry, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query(`SELECT chunk_id, content, metadata, embedding FROM chunks ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&entry.ChunkID, &entry.Content, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("parse metadata for %s: %w", entry.ChunkID, err)
		}
		entry.Embedding = bytesToFloat32Slice(blob)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return entries, nil
}

// float32SliceToBytes encodes a vector as little-endian float32 values.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
