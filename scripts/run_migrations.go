package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"

	"github.com/safar/commerce-admin/internal/config"
)

// Applies the SQL files under migrations/ in order. "up" runs the
// *.up.sql files ascending, "down" runs the *.down.sql files descending.
func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal("usage: go run scripts/run_migrations.go [up|down]")
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	names, err := migrationFiles("migrations", direction)
	if err != nil {
		log.Fatal(err)
	}

	for _, name := range names {
		stmt, err := os.ReadFile(filepath.Join("migrations", name))
		if err != nil {
			log.Fatalf("read migration %s: %v", name, err)
		}
		log.Printf("running migration: %s", name)
		if _, err := db.Exec(string(stmt)); err != nil {
			log.Fatalf("execute migration %s: %v", name, err)
		}
	}

	log.Printf("ran %d migration(s) %s", len(names), direction)
}

func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	suffix := "." + direction + ".sql"
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}

	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	} else {
		sort.Strings(names)
	}
	return names, nil
}
