package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	boltdb "github.com/andrew-solarstorm/bolt-db"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/orca-swap-router/internal/adapters/orca"
)

const (
	CatalogBucket = "catalog"
	MetaBucket    = "catalog_meta"

	DefaultDBPath = "./data/orca-router.db"
)

// SnapshotMeta describes the last catalog snapshot written for a network.
type SnapshotMeta struct {
	Network   string    `json:"network"`
	Source    string    `json:"source"`
	Documents int       `json:"documents"`
	SavedAt   time.Time `json:"savedAt"`
}

// Storage keeps the last good catalog documents so the router can start when
// the catalog source is unreachable.
type Storage struct {
	db     *boltdb.BoltDatabase
	dbPath string
}

func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database dir: %w", err)
	}

	db := boltdb.NewBoltDatabase(dbPath)
	if db == nil {
		return nil, fmt.Errorf("failed to open database at %s", dbPath)
	}

	log.Info().Str("path", dbPath).Msg("[catalogStorage] opened database")

	return &Storage{
		db:     db,
		dbPath: dbPath,
	}, nil
}

func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func documentKey(network string, doc orca.DocumentType) []byte {
	return []byte(network + "/" + string(doc))
}

// SaveSnapshot writes every document of a network in one batch.
func (s *Storage) SaveSnapshot(network, source string, raw orca.RawDocuments) error {
	if len(raw) == 0 {
		return nil
	}

	batch := s.db.NewBatch()
	for doc, data := range raw {
		value := data
		op := &boltdb.WriteOperation{
			Bucket: []byte(CatalogBucket),
			Key:    documentKey(network, doc),
			Value:  &value,
			Op:     boltdb.OpSet,
		}
		if err := batch.Add(op); err != nil {
			return fmt.Errorf("failed to add document %s to batch: %w", doc, err)
		}
	}

	meta, err := sonic.Marshal(SnapshotMeta{
		Network:   network,
		Source:    source,
		Documents: len(raw),
		SavedAt:   time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot meta: %w", err)
	}
	if err := batch.Add(&boltdb.WriteOperation{
		Bucket: []byte(MetaBucket),
		Key:    []byte(network),
		Value:  &meta,
		Op:     boltdb.OpSet,
	}); err != nil {
		return fmt.Errorf("failed to add snapshot meta to batch: %w", err)
	}

	if err := batch.Execute(); err != nil {
		log.Error().Err(err).Str("network", network).Msg("[catalogStorage] FAILED to execute batch")
		return err
	}

	log.Info().Str("network", network).Int("documents", len(raw)).Msg("[catalogStorage] saved catalog snapshot")
	return nil
}

// LoadSnapshot returns the stored documents of a network. Documents of other
// networks sharing the bucket are ignored.
func (s *Storage) LoadSnapshot(network string) (orca.RawDocuments, error) {
	data, err := s.db.List(CatalogBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog documents: %w", err)
	}

	prefix := network + "/"
	raw := make(orca.RawDocuments, len(orca.AllDocuments))
	for key, value := range data {
		doc, ok := strings.CutPrefix(key, prefix)
		if !ok {
			continue
		}
		raw[orca.DocumentType(doc)] = value
	}

	log.Info().Str("network", network).Int("documents", len(raw)).Msg("[catalogStorage] loaded catalog snapshot")
	return raw, nil
}

// Meta returns the metadata of the last snapshot of a network.
func (s *Storage) Meta(network string) (SnapshotMeta, bool, error) {
	data, err := s.db.List(MetaBucket)
	if err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("failed to list snapshot meta: %w", err)
	}
	value, ok := data[network]
	if !ok {
		return SnapshotMeta{}, false, nil
	}
	var meta SnapshotMeta
	if err := sonic.Unmarshal(value, &meta); err != nil {
		return SnapshotMeta{}, false, fmt.Errorf("failed to unmarshal snapshot meta: %w", err)
	}
	return meta, true, nil
}
