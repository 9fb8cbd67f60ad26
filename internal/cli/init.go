package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/pathquiz/pkg/adapters/definition"
	"github.com/aretw0/pathquiz/pkg/adapters/memory"
	"github.com/aretw0/pathquiz/pkg/adapters/sqlite"
	"github.com/joho/godotenv"
)

// Files written by RunInit.
const (
	InitDefinitionFile = "learning-path.yaml"
	InitCatalogFile    = "catalog.db"
	InitEnvFile        = ".env"
)

// RunInit scaffolds an editable project in dir: the built-in quiz as YAML,
// a seeded SQLite catalog and a .env pointing at both.
// Existing files are left untouched.
func RunInit(ctx context.Context, dir string, w io.Writer) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	printSystemMessage(w, "Initializing pathquiz project in: %s", dir)

	defPath := filepath.Join(dir, InitDefinitionFile)
	if err := writeIfMissing(defPath, definition.DefaultYAML(), w); err != nil {
		return err
	}

	dbPath := filepath.Join(dir, InitCatalogFile)
	cat, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer cat.Close()
	n, err := cat.Count(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		if err := cat.Seed(ctx, memory.SeedCourses()...); err != nil {
			return err
		}
		fmt.Fprintf(w, "  created %s\n", dbPath)
	} else {
		fmt.Fprintf(w, "  kept %s (%d courses)\n", dbPath, n)
	}

	envPath := filepath.Join(dir, InitEnvFile)
	if _, err := os.Stat(envPath); err == nil {
		fmt.Fprintf(w, "  kept %s\n", envPath)
		return nil
	}
	env := map[string]string{
		"PATHQUIZ_DEFINITION":  InitDefinitionFile,
		"PATHQUIZ_CATALOG_DB":  InitCatalogFile,
		"PATHQUIZ_STORE":       "file",
		"PATHQUIZ_SESSION_DIR": filepath.Join(".pathquiz", "sessions"),
	}
	if err := godotenv.Write(env, envPath); err != nil {
		return fmt.Errorf("writing %s: %w", envPath, err)
	}
	fmt.Fprintf(w, "  created %s\n", envPath)
	return nil
}

func writeIfMissing(path string, data []byte, w io.Writer) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(w, "  kept %s\n", path)
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(w, "  created %s\n", path)
	return nil
}
