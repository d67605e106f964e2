package ledger

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultFile is the ledger file name inside the default storage root.
const DefaultFile = ".pkgdb-scan.db"

// Bucket names
var (
	MetaBucket     = []byte("meta")     // version, timestamps, scan count
	PackagesBucket = []byte("packages") // package name -> Entry (JSON)
)

// Meta keys
var (
	MetaVersion  = []byte("version")
	MetaCreated  = []byte("created")
	MetaLastScan = []byte("last_scan")
	MetaScans    = []byte("scans")
)

var ErrNotInitialized = errors.New("scan ledger not initialized")

// Entry is one package as seen by a scan.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Time int64     `json:"time"` // package directory mtime, epoch ms
	Seen time.Time `json:"seen"`
}

// Ledger records the outcome of the last disk scan.
type Ledger struct {
	db *bolt.DB
}

// Open opens or creates a ledger database. It waits at most one second
// for another process holding the file lock.
func Open(path string) (*Ledger, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.db.Path()
}

// Initialize creates the bucket structure if it does not exist yet.
func (l *Ledger) Initialize() error {
	return l.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{MetaBucket, PackagesBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		meta := tx.Bucket(MetaBucket)
		if meta.Get(MetaVersion) != nil {
			return nil
		}
		if err := meta.Put(MetaVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		return meta.Put(MetaCreated, created)
	})
}

// IsInitialized checks if the database has been initialized
func (l *Ledger) IsInitialized() (bool, error) {
	var initialized bool
	err := l.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta != nil && meta.Get(MetaVersion) != nil {
			initialized = true
		}
		return nil
	})
	return initialized, err
}

// Record replaces the recorded package set with entries in one transaction.
func (l *Ledger) Record(entries []Entry, at time.Time) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return ErrNotInitialized
		}

		if tx.Bucket(PackagesBucket) != nil {
			if err := tx.DeleteBucket(PackagesBucket); err != nil {
				return fmt.Errorf("failed to reset packages: %w", err)
			}
		}
		packages, err := tx.CreateBucket(PackagesBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", PackagesBucket, err)
		}

		for _, entry := range entries {
			entry.Seen = at
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			if err := packages.Put([]byte(entry.Name), data); err != nil {
				return err
			}
		}

		stamp, _ := at.MarshalBinary()
		if err := meta.Put(MetaLastScan, stamp); err != nil {
			return err
		}

		scans := make([]byte, 8)
		if prev := meta.Get(MetaScans); len(prev) == 8 {
			binary.BigEndian.PutUint64(scans, binary.BigEndian.Uint64(prev)+1)
		} else {
			binary.BigEndian.PutUint64(scans, 1)
		}
		return meta.Put(MetaScans, scans)
	})
}

// Entries returns all recorded entries ordered by name.
func (l *Ledger) Entries() ([]Entry, error) {
	var entries []Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		packages := tx.Bucket(PackagesBucket)
		if packages == nil {
			return ErrNotInitialized
		}
		return packages.ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("corrupt ledger entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	return entries, err
}

// Entry returns one recorded entry, or nil if the package was not seen.
func (l *Ledger) Entry(name string) (*Entry, error) {
	var entry *Entry
	err := l.db.View(func(tx *bolt.Tx) error {
		packages := tx.Bucket(PackagesBucket)
		if packages == nil {
			return ErrNotInitialized
		}
		data := packages.Get([]byte(name))
		if data == nil {
			return nil
		}
		entry = &Entry{}
		return json.Unmarshal(data, entry)
	})
	return entry, err
}

// LastScan returns when Record was last called; zero if never.
func (l *Ledger) LastScan() (time.Time, error) {
	var last time.Time
	err := l.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return ErrNotInitialized
		}
		data := meta.Get(MetaLastScan)
		if data == nil {
			return nil
		}
		return last.UnmarshalBinary(data)
	})
	return last, err
}

// Scans returns how many scans have been recorded.
func (l *Ledger) Scans() (uint64, error) {
	var n uint64
	err := l.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(MetaBucket)
		if meta == nil {
			return ErrNotInitialized
		}
		if data := meta.Get(MetaScans); len(data) == 8 {
			n = binary.BigEndian.Uint64(data)
		}
		return nil
	})
	return n, err
}

// Compact creates a compacted copy of the database, removing unused space.
// Each Record rewrites the packages bucket, so the file grows until compacted.
func (l *Ledger) Compact() error {
	srcPath := l.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	err = l.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := l.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	l.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
