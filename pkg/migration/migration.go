package migration

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/muhammadchandra19/market-signal/pkg/logger"
	"github.com/muhammadchandra19/market-signal/pkg/questdb"
)

const tableName = "schema_migrations"

// Migration represents a database migration
type Migration struct {
	ID        string
	Name      string
	Timestamp time.Time
	UpSQL     string
	DownSQL   string
}

// Config holds the migration runner configuration.
type Config struct {
	// Vars are substituted for ${NAME} placeholders in migration files.
	// Values must be plain identifiers since they end up in table names.
	Vars map[string]string
	// Scope separates the applied set of one target, e.g. a symbol.
	Scope string
}

// Runner handles migration execution
type Runner struct {
	client questdb.QuestDBClient
	source fs.FS
	config Config
	log    logger.Interface
}

// NewRunner creates a new migration runner reading *.up.sql and *.down.sql
// files from the root of source.
func NewRunner(client questdb.QuestDBClient, source fs.FS, config Config, log logger.Interface) *Runner {
	return &Runner{
		client: client,
		source: source,
		config: config,
		log:    log,
	}
}

// EnsureMigrationTable creates the schema_migrations table if it doesn't exist
func (r *Runner) EnsureMigrationTable(ctx context.Context) error {
	createTableSQL := `
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			id STRING,
			name STRING,
			scope SYMBOL,
			applied_at TIMESTAMP
		) TIMESTAMP(applied_at) PARTITION BY MONTH;
	`
	if err := r.client.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the IDs applied within the runner's scope.
func (r *Runner) GetAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := r.client.Query(ctx, "SELECT id FROM "+tableName+" WHERE scope = $1", r.config.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		applied[id] = true
	}

	return applied, rows.Err()
}

// LoadMigrations loads and expands every migration in source, ordered by ID.
func (r *Runner) LoadMigrations() ([]Migration, error) {
	upFiles, err := fs.Glob(r.source, "*.up.sql")
	if err != nil {
		return nil, err
	}

	sort.Strings(upFiles)

	migrations := make([]Migration, 0, len(upFiles))
	for _, upFile := range upFiles {
		migration, err := r.parseMigrationFiles(upFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse migration %s: %w", upFile, err)
		}
		migrations = append(migrations, migration)
	}

	return migrations, nil
}

func (r *Runner) parseMigrationFiles(upFilePath string) (Migration, error) {
	upContent, err := fs.ReadFile(r.source, upFilePath)
	if err != nil {
		return Migration{}, err
	}

	id := strings.TrimSuffix(path.Base(upFilePath), ".up.sql")
	downFilePath := strings.TrimSuffix(upFilePath, ".up.sql") + ".down.sql"

	// file names look like YYYYMMDDHHMMSS_name
	name := id
	timestamp := time.Unix(0, 0).UTC()
	if prefix, rest, ok := strings.Cut(id, "_"); ok {
		name = rest
		if ts, err := time.Parse("20060102150405", prefix); err == nil {
			timestamp = ts
		}
	}

	upSQL, err := r.expand(string(upContent))
	if err != nil {
		return Migration{}, err
	}

	var downSQL string
	if downContent, err := fs.ReadFile(r.source, downFilePath); err == nil {
		if downSQL, err = r.expand(string(downContent)); err != nil {
			return Migration{}, err
		}
	}

	return Migration{
		ID:        id,
		Name:      name,
		Timestamp: timestamp,
		UpSQL:     upSQL,
		DownSQL:   downSQL,
	}, nil
}

func (r *Runner) expand(sql string) (string, error) {
	var missing []string
	expanded := os.Expand(sql, func(key string) string {
		value, ok := r.config.Vars[key]
		if !ok {
			missing = append(missing, key)
			return ""
		}
		return value
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("undefined migration variables: %s", strings.Join(missing, ", "))
	}

	for key, value := range r.config.Vars {
		if err := questdb.ValidateIdentifier(value); err != nil {
			return "", fmt.Errorf("migration variable %s: %w", key, err)
		}
	}

	return strings.TrimSpace(expanded), nil
}

// MigrateUp applies pending migrations, at most steps of them when steps > 0.
// It returns the number applied.
func (r *Runner) MigrateUp(ctx context.Context, steps int) (int, error) {
	migrations, err := r.LoadMigrations()
	if err != nil {
		return 0, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	var toApply []Migration
	for _, migration := range migrations {
		if !applied[migration.ID] {
			toApply = append(toApply, migration)
		}
	}

	if steps > 0 && len(toApply) > steps {
		toApply = toApply[:steps]
	}

	count := 0
	for _, migration := range toApply {
		fields := []logger.Field{logger.NewField("id", migration.ID), logger.NewField("scope", r.config.Scope)}

		if migration.UpSQL == "" {
			r.log.WarnContext(ctx, "migration has no up statement", fields...)
			continue
		}

		if err := r.client.Exec(ctx, migration.UpSQL); err != nil {
			return count, fmt.Errorf("failed to apply migration %s: %w", migration.ID, err)
		}

		err := r.client.Exec(ctx, "INSERT INTO "+tableName+" VALUES ($1, $2, $3, now())",
			migration.ID, migration.Name, r.config.Scope)
		if err != nil {
			return count, fmt.Errorf("failed to record migration %s: %w", migration.ID, err)
		}

		count++
		r.log.InfoContext(ctx, "applied migration", fields...)
	}

	return count, nil
}

// MigrateDown reverts the last steps applied migrations and returns how many
// were reverted.
func (r *Runner) MigrateDown(ctx context.Context, steps int) (int, error) {
	if steps <= 0 {
		return 0, fmt.Errorf("steps must be greater than 0 for down migrations")
	}

	migrations, err := r.LoadMigrations()
	if err != nil {
		return 0, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	var toRevert []Migration
	for i := len(migrations) - 1; i >= 0 && len(toRevert) < steps; i-- {
		if applied[migrations[i].ID] {
			toRevert = append(toRevert, migrations[i])
		}
	}

	count := 0
	for _, migration := range toRevert {
		if migration.DownSQL == "" {
			return count, fmt.Errorf("no DOWN SQL found for migration %s - cannot revert", migration.ID)
		}

		if err := r.client.Exec(ctx, migration.DownSQL); err != nil {
			return count, fmt.Errorf("failed to revert migration %s: %w", migration.ID, err)
		}

		err := r.client.Exec(ctx, "DELETE FROM "+tableName+" WHERE id = $1 AND scope = $2",
			migration.ID, r.config.Scope)
		if err != nil {
			return count, fmt.Errorf("failed to remove migration record %s: %w", migration.ID, err)
		}

		count++
		r.log.InfoContext(ctx, "reverted migration",
			logger.NewField("id", migration.ID),
			logger.NewField("scope", r.config.Scope),
		)
	}

	return count, nil
}
