package schemareader

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "rhn.conf")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGetConnectionString(t *testing.T) {
	tests := []struct {
		name           string
		config         string
		expectedDriver string
		expectedDSN    string
	}{
		{
			name: "postgres default backend",
			config: `db_host = 192.168.122.177
db_port = 5432
db_name = susemanager
db_user = spacewalk
db_password = spacewalk
`,
			expectedDriver: "postgres",
			expectedDSN:    "user='spacewalk' password='spacewalk' dbname='susemanager' host='192.168.122.177' port='5432' sslmode=disable",
		},
		{
			name: "mysql",
			config: `db_backend = mysql
db_host = localhost
db_name = app
db_user = root
db_password = secret
`,
			expectedDriver: "mysql",
			expectedDSN:    "root:secret@tcp(localhost:3306)/app",
		},
		{
			name: "sqlserver",
			config: `db_backend = mssql
db_host = db
db_port = 1434
db_name = app
db_user = sa
db_password = pw
`,
			expectedDriver: "sqlserver",
			expectedDSN:    "sqlserver://sa:pw@db:1434?database=app&encrypt=disable",
		},
		{
			name:           "sqlite",
			config:         "db_backend = sqlite\ndb_file = /tmp/app.db\n",
			expectedDriver: "sqlite",
			expectedDSN:    "/tmp/app.db",
		},
	}

	for _, test := range tests {
		driver, dsn, err := GetConnectionString(writeConfig(t, test.config))
		if err != nil {
			t.Errorf("%s: %s", test.name, err)
			continue
		}
		if driver != test.expectedDriver || dsn != test.expectedDSN {
			t.Errorf("%s: got (%s, %s); expected (%s, %s)", test.name, driver, dsn, test.expectedDriver, test.expectedDSN)
		}
	}
}

func TestGetConnectionStringErrors(t *testing.T) {
	if _, _, err := GetConnectionString(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
	if _, _, err := GetConnectionString(writeConfig(t, "db_backend = oracle\n")); err == nil {
		t.Errorf("expected an error for an unsupported backend")
	}
	if _, _, err := GetConnectionString(writeConfig(t, "db_backend = sqlite\n")); err == nil {
		t.Errorf("expected an error for sqlite without db_file")
	}
}

func TestGetConnectionStringWithPassword(t *testing.T) {
	path := writeConfig(t, "db_host = localhost\ndb_port = 5432\ndb_name = app\ndb_user = app\ndb_password = stale\n")

	_, dsn, err := GetConnectionStringWithPassword(path, "fresh")

	if err != nil {
		t.Fatal(err)
	}
	expected := "user='app' password='fresh' dbname='app' host='localhost' port='5432' sslmode=disable"
	if dsn != expected {
		t.Errorf("got %s; expected %s", dsn, expected)
	}
}
