package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"crmagent/internal/campaign"
	"crmagent/internal/clients"
)

// ClientsCSV is a small client list covering every category.
const ClientsCSV = `id,name,sector,average_spend,risk,social_channel
C001,Ana Torres,retail,800,low,instagram
C002,Luis Perez,tech,900,high,twitter
C003,Marta Ruiz,health,300,medium,facebook
C004,Pablo Gil,food,50,low,linkedin
`

// Clients returns the records in ClientsCSV.
func Clients(t testing.TB) []campaign.ClientRecord {
	t.Helper()
	records, err := clients.ParseCSV(strings.NewReader(ClientsCSV))
	if err != nil {
		t.Fatalf("parse fixture clients: %v", err)
	}
	return records
}

// Directory returns a Directory over the fixture clients.
func Directory(t testing.TB) *clients.Directory {
	t.Helper()
	dir, err := clients.NewDirectory(Clients(t))
	if err != nil {
		t.Fatalf("build fixture directory: %v", err)
	}
	return dir
}

// WriteClientsCSV writes ClientsCSV to path.
func WriteClientsCSV(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(ClientsCSV), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// MustLoadDirectory loads the client list at path.
func MustLoadDirectory(t testing.TB, path string) *clients.Directory {
	t.Helper()
	dir, err := clients.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("clients.Load: %v", err)
	}
	return dir
}
