package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/refundo/pkg/repository"
)

type setFlags map[string]bool

func (s setFlags) IsSet(name string) bool { return s[name] }

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestApplyFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
addr: ":9090"
database: mydb
collection: custom_invoices
gemini_location: asia-northeast1
`)

	cfg := config{
		database:       "(default)",
		collection:     repository.DefaultCollection,
		geminiLocation: "us-central1",
	}
	addr := ":8080"

	gt.NoError(t, cfg.applyFile(path, setFlags{}, &addr))

	gt.Equal(t, addr, ":9090")
	gt.Equal(t, cfg.database, "mydb")
	gt.Equal(t, cfg.collection, "custom_invoices")
	gt.Equal(t, cfg.geminiLocation, "asia-northeast1")
}

func TestApplyFileKeepsExplicitFlags(t *testing.T) {
	path := writeConfigFile(t, `
addr: ":9090"
database: mydb
project: file-project
`)

	cfg := config{
		project:  "flag-project",
		database: "flag-db",
	}
	addr := ":3000"

	flags := setFlags{"addr": true, "database": true, "project": true}
	gt.NoError(t, cfg.applyFile(path, flags, &addr))

	gt.Equal(t, addr, ":3000")
	gt.Equal(t, cfg.database, "flag-db")
	gt.Equal(t, cfg.project, "flag-project")
}

func TestApplyFileFillsUnsetFields(t *testing.T) {
	path := writeConfigFile(t, `
project: file-project
bucket: file-bucket
`)

	var cfg config
	gt.NoError(t, cfg.applyFile(path, setFlags{}, nil))

	gt.Equal(t, cfg.project, "file-project")
	gt.Equal(t, cfg.bucket, "file-bucket")
	gt.Equal(t, cfg.database, "")
}

func TestApplyFileIgnoresEmptyFileValues(t *testing.T) {
	path := writeConfigFile(t, `
project: ""
`)

	cfg := config{database: "(default)"}
	addr := ":8080"

	gt.NoError(t, cfg.applyFile(path, setFlags{}, &addr))

	gt.Equal(t, cfg.database, "(default)")
	gt.Equal(t, addr, ":8080")
}

func TestApplyFileErrors(t *testing.T) {
	var cfg config
	gt.Error(t, cfg.applyFile(filepath.Join(t.TempDir(), "missing.yml"), setFlags{}, nil))

	bad := writeConfigFile(t, "addr: [broken")
	gt.Error(t, cfg.applyFile(bad, setFlags{}, nil))
}
