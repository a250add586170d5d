package semantic

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/voxagent/memoryd/internal/models"
)

// Index file layout: 6-byte magic, uint32 dimension, uint32 vector count,
// then count*dimension little-endian float32s. Records, user mapping, and
// tombstones live in a JSON sidecar next to it.
var indexMagic = [6]byte{'V', 'X', 'I', 'D', 'X', '1'}

const (
	indexFile = "semantic.index"
	metaFile  = "semantic_meta.json"
)

type indexMeta struct {
	Records []models.SemanticRecord `json:"records"`
	ByUser  map[string][]int        `json:"byUser"`
	Deleted []int                   `json:"deleted"`
}

// Save writes the index and metadata to the configured directory. Both files
// are written to temp paths and renamed so a crash mid-save leaves the
// previous snapshot intact.
func (ix *Index) Save() error {
	if ix.dir == "" {
		return fmt.Errorf("save index: no directory configured")
	}
	if err := os.MkdirAll(ix.dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	buf := make([]byte, 6+4+4+len(ix.vectors)*ix.dim*4)
	copy(buf, indexMagic[:])
	binary.LittleEndian.PutUint32(buf[6:], uint32(ix.dim))
	binary.LittleEndian.PutUint32(buf[10:], uint32(len(ix.vectors)))
	off := 14
	for _, vec := range ix.vectors {
		for _, f := range vec {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}

	if err := writeAtomic(filepath.Join(ix.dir, indexFile), buf); err != nil {
		return fmt.Errorf("write index file: %w", err)
	}

	meta := indexMeta{
		Records: ix.records,
		ByUser:  ix.byUser,
		Deleted: make([]int, 0, len(ix.deleted)),
	}
	for pos := range ix.deleted {
		meta.Deleted = append(meta.Deleted, pos)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal index metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(ix.dir, metaFile), data); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	return nil
}

// Load restores a saved index. A missing file pair leaves the index empty and
// is not an error; a corrupt or dimension-mismatched file is.
func (ix *Index) Load() (bool, error) {
	buf, err := os.ReadFile(filepath.Join(ix.dir, indexFile))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read index file: %w", err)
	}

	if len(buf) < 14 || [6]byte(buf[:6]) != indexMagic {
		return false, fmt.Errorf("index file: bad magic")
	}
	dim := int(binary.LittleEndian.Uint32(buf[6:]))
	count := int(binary.LittleEndian.Uint32(buf[10:]))
	if dim != ix.dim {
		return false, fmt.Errorf("index file: dimension %d does not match configured %d", dim, ix.dim)
	}
	if len(buf) != 14+count*dim*4 {
		return false, fmt.Errorf("index file: truncated (%d vectors declared, %d bytes present)", count, len(buf)-14)
	}

	metaData, err := os.ReadFile(filepath.Join(ix.dir, metaFile))
	if err != nil {
		return false, fmt.Errorf("read metadata file: %w", err)
	}
	var meta indexMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return false, fmt.Errorf("parse metadata file: %w", err)
	}
	if len(meta.Records) != count {
		return false, fmt.Errorf("index file: %d vectors but %d metadata records", count, len(meta.Records))
	}

	vectors := make([][]float32, count)
	off := 14
	for i := range vectors {
		vec := make([]float32, dim)
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
			off += 4
		}
		vectors[i] = vec
	}

	deleted := make(map[int]struct{}, len(meta.Deleted))
	for _, pos := range meta.Deleted {
		if pos < 0 || pos >= count {
			return false, fmt.Errorf("metadata file: tombstone position %d out of range", pos)
		}
		deleted[pos] = struct{}{}
	}
	byUser := meta.ByUser
	if byUser == nil {
		byUser = make(map[string][]int)
	}

	ix.mu.Lock()
	ix.vectors = vectors
	ix.records = meta.Records
	ix.byUser = byUser
	ix.deleted = deleted
	ix.mu.Unlock()

	return true, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
