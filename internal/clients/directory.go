package clients

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"crmagent/internal/campaign"
	"crmagent/internal/services"
)

// Directory is an immutable, ordered set of client records.
type Directory struct {
	order []campaign.ClientRecord
	byID  map[string]int
}

// NewDirectory indexes records. Duplicate ids are rejected.
func NewDirectory(records []campaign.ClientRecord) (*Directory, error) {
	d := &Directory{
		order: make([]campaign.ClientRecord, 0, len(records)),
		byID:  make(map[string]int, len(records)),
	}
	for _, record := range records {
		id := strings.TrimSpace(record.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: client record without id", services.ErrValidation)
		}
		if _, dup := d.byID[id]; dup {
			return nil, fmt.Errorf("%w: duplicate client id %q", services.ErrValidation, id)
		}
		record.ID = id
		d.byID[id] = len(d.order)
		d.order = append(d.order, record)
	}
	return d, nil
}

// Lookup returns the record for id.
func (d *Directory) Lookup(id string) (campaign.ClientRecord, bool) {
	if d == nil {
		return campaign.ClientRecord{}, false
	}
	idx, ok := d.byID[strings.TrimSpace(id)]
	if !ok {
		return campaign.ClientRecord{}, false
	}
	return d.order[idx], true
}

// List returns every record in load order.
func (d *Directory) List() []campaign.ClientRecord {
	if d == nil {
		return nil
	}
	return append([]campaign.ClientRecord(nil), d.order...)
}

// Len returns the number of records.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.order)
}

// Load reads the client list at path, choosing the format by extension.
func Load(ctx context.Context, path string) (*Directory, error) {
	var (
		records []campaign.ClientRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = loadCSVFile(path)
	case ".db", ".sqlite", ".sqlite3":
		records, err = LoadSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: client list %q must be .csv, .db or .sqlite", services.ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return NewDirectory(records)
}

func loadCSVFile(path string) ([]campaign.ClientRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open client list: %w", err)
	}
	defer file.Close()
	return ParseCSV(file)
}
