package plugins

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/deskhost/internal/host"
	"github.com/desertthunder/deskhost/internal/shared"
)

// ExecResult is returned by sql_execute.
type ExecResult struct {
	RowsAffected int64 `json:"rowsAffected"`
	LastInsertID int64 `json:"lastInsertId"`
}

type queryArgs struct {
	Query  string `json:"query"`
	Values []any  `json:"values"`
}

// SQL runs frontend queries against the host database. It owns db and closes it in Close.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps a migrated database.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) Name() string { return "sql" }

// DB returns the wrapped database for plugins that share it.
func (s *SQL) DB() *sql.DB { return s.db }

func (s *SQL) Setup(app *host.App) error {
	if err := app.Register("sql_execute", func(ctx context.Context, _ *host.App, args json.RawMessage) (any, error) {
		in, err := decodeQuery(args)
		if err != nil {
			return nil, err
		}
		return s.Execute(ctx, in.Query, in.Values...)
	}); err != nil {
		return err
	}

	return app.Register("sql_select", func(ctx context.Context, _ *host.App, args json.RawMessage) (any, error) {
		in, err := decodeQuery(args)
		if err != nil {
			return nil, err
		}
		return s.Select(ctx, in.Query, in.Values...)
	})
}

func decodeQuery(args json.RawMessage) (queryArgs, error) {
	in, err := host.DecodeArgs[queryArgs](args)
	if err != nil {
		return in, err
	}
	if in.Query == "" {
		return in, fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	return in, nil
}

// Execute runs a statement that returns no rows.
func (s *SQL) Execute(ctx context.Context, query string, values ...any) (*ExecResult, error) {
	result, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	out := &ExecResult{}
	if out.RowsAffected, err = result.RowsAffected(); err != nil {
		return nil, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if out.LastInsertID, err = result.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return out, nil
}

// Select runs a query and returns one column→value map per row. TEXT and BLOB values come back as strings.
func (s *SQL) Select(ctx context.Context, query string, values ...any) ([]map[string]any, error) {
	rows, err := s.db.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	out := []map[string]any{}
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := cells[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = cells[i]
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// Close closes the database.
func (s *SQL) Close() error {
	return s.db.Close()
}
