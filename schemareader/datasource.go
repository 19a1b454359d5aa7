package schemareader

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type dataSource struct {
	backend    string
	host       string
	port       string
	dbname     string
	user       string
	password   string
	sslEnabled bool
	file       string
}

// GetConnectionString reads a "key = value" server config file and returns
// the database/sql driver name and connection string for it.
func GetConnectionString(configFilePath string) (string, string, error) {
	return GetConnectionStringWithPassword(configFilePath, "")
}

// GetConnectionStringWithPassword is GetConnectionString with db_password
// replaced by password, unless it is empty.
func GetConnectionStringWithPassword(configFilePath string, password string) (string, string, error) {
	file, err := os.Open(configFilePath)
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	dataSource := &dataSource{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if equal := strings.Index(line, "="); equal >= 0 {
			value := ""
			if len(line) > equal {
				value = strings.TrimSpace(line[equal+1:])
			}
			if key := strings.TrimSpace(line[:equal]); len(key) > 0 {
				switch key {
				case "db_backend":
					dataSource.backend = value
				case "db_host":
					dataSource.host = value
				case "db_port":
					dataSource.port = value
				case "db_name":
					dataSource.dbname = value
				case "db_user":
					dataSource.user = value
				case "db_password":
					dataSource.password = value
				case "db_ssl_enabled":
					dataSource.sslEnabled = value == "1" || strings.EqualFold(value, "true")
				case "db_file":
					dataSource.file = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}
	if len(password) > 0 {
		dataSource.password = password
	}
	return dataSource.connectionString()
}

func (ds *dataSource) connectionString() (string, string, error) {
	switch strings.ToLower(ds.backend) {
	case "", "postgresql", "postgres":
		sslMode := "disable"
		if ds.sslEnabled {
			sslMode = "require"
		}
		return "postgres", fmt.Sprintf("user='%s' password='%s' dbname='%s' host='%s' port='%s' sslmode=%s",
			ds.user, ds.password, ds.dbname, ds.host, ds.port, sslMode), nil
	case "mysql", "mariadb":
		cfg := mysql.NewConfig()
		cfg.User = ds.user
		cfg.Passwd = ds.password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(ds.host, defaultPort(ds.port, "3306"))
		cfg.DBName = ds.dbname
		if ds.sslEnabled {
			cfg.TLSConfig = "true"
		}
		return "mysql", cfg.FormatDSN(), nil
	case "mssql", "sqlserver":
		query := url.Values{}
		query.Set("database", ds.dbname)
		if !ds.sslEnabled {
			query.Set("encrypt", "disable")
		}
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(ds.user, ds.password),
			Host:     net.JoinHostPort(ds.host, defaultPort(ds.port, "1433")),
			RawQuery: query.Encode(),
		}
		return "sqlserver", u.String(), nil
	case "sqlite", "sqlite3":
		if len(ds.file) == 0 {
			return "", "", fmt.Errorf("db_file is required for the sqlite backend")
		}
		return "sqlite", ds.file, nil
	default:
		return "", "", fmt.Errorf("unsupported db_backend: %s", ds.backend)
	}
}

func defaultPort(port string, fallback string) string {
	if len(port) == 0 {
		return fallback
	}
	return port
}
