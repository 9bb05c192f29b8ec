package fleet

import (
	"database/sql"

	"github.com/camhub/camhub/pkg/plugin"
)

func migrations() []plugin.Migration {
	return []plugin.Migration{
		{
			Version:     1,
			Description: "create fleet node registry table",
			Up: func(tx *sql.Tx) error {
				stmts := []string{
					`CREATE TABLE IF NOT EXISTS fleet_nodes (
						id TEXT PRIMARY KEY,
						name TEXT NOT NULL,
						base_url TEXT NOT NULL,
						auth_type TEXT NOT NULL DEFAULT 'none',
						auth_token TEXT NOT NULL DEFAULT '',
						labels TEXT NOT NULL DEFAULT '{}',
						capabilities TEXT NOT NULL DEFAULT '[]',
						transport TEXT NOT NULL DEFAULT 'http',
						created_at DATETIME NOT NULL,
						last_seen DATETIME NOT NULL
					)`,
					`CREATE INDEX IF NOT EXISTS idx_fleet_nodes_name ON fleet_nodes(name)`,
				}
				for _, stmt := range stmts {
					if _, err := tx.Exec(stmt); err != nil {
						return err
					}
				}
				return nil
			},
		},
	}
}
