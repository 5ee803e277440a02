package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"
)

// queryLogConnector implements driver.Connector by opening the wrapped driver and
// logging every statement it prepares, at debug level.
type queryLogConnector struct {
	driver driver.Driver
	dsn    string
	logger *slog.Logger
}

type queryLogConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

type queryLogStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

// NewQueryLogConnector returns a driver.Connector for drv that logs SQL text, args and
// duration. Use sql.OpenDB(connector). If logger is nil, slog.Default() is used.
func NewQueryLogConnector(drv driver.Driver, dsn string, logger *slog.Logger) (driver.Connector, error) {
	if drv == nil {
		return nil, fmt.Errorf("query log: nil driver")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &queryLogConnector{driver: drv, dsn: dsn, logger: logger}, nil
}

func (c *queryLogConnector) Driver() driver.Driver {
	return c.driver
}

func (c *queryLogConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.driver.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &queryLogConn{conn: conn, logger: c.logger}, nil
}

func (c *queryLogConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &queryLogStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *queryLogConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	prep, ok := c.conn.(driver.ConnPrepareContext)
	if !ok {
		return c.Prepare(query)
	}
	stmt, err := prep.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return &queryLogStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *queryLogConn) Close() error {
	return c.conn.Close()
}

func (c *queryLogConn) Begin() (driver.Tx, error) {
	//nolint:staticcheck // SA1019 – required when underlying conn does not implement ConnBeginTx
	return c.conn.Begin()
}

func (c *queryLogConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 – fallback when underlying conn does not implement ConnBeginTx
	return c.conn.Begin()
}

// Ping forwards to the wrapped conn so db.Ping reaches the server.
func (c *queryLogConn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *queryLogStmt) Exec(args []driver.Value) (driver.Result, error) {
	defer s.log("exec", valuesToAny(args), time.Now())
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtExecContext
	return s.stmt.Exec(args)
}

func (s *queryLogStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	defer s.log("exec", namedToAny(args), time.Now())
	execCtx, ok := s.stmt.(driver.StmtExecContext)
	if !ok {
		//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtExecContext
		return s.stmt.Exec(namedToValues(args))
	}
	return execCtx.ExecContext(ctx, args)
}

func (s *queryLogStmt) Query(args []driver.Value) (driver.Rows, error) {
	defer s.log("query", valuesToAny(args), time.Now())
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtQueryContext
	return s.stmt.Query(args)
}

func (s *queryLogStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	defer s.log("query", namedToAny(args), time.Now())
	queryCtx, ok := s.stmt.(driver.StmtQueryContext)
	if !ok {
		//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtQueryContext
		return s.stmt.Query(namedToValues(args))
	}
	return queryCtx.QueryContext(ctx, args)
}

func (s *queryLogStmt) Close() error {
	return s.stmt.Close()
}

func (s *queryLogStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *queryLogStmt) log(op string, args []any, start time.Time) {
	s.logger.Debug("sql",
		"op", op,
		"sql", s.query,
		"args", args,
		"duration", time.Since(start),
	)
}

func valuesToAny(args []driver.Value) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = formatArg(a)
	}
	return out
}

func namedToAny(args []driver.NamedValue) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if a.Name != "" {
			out[i] = a.Name + "=" + formatArg(a.Value)
		} else {
			out[i] = formatArg(a.Value)
		}
	}
	return out
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}

func formatArg(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(t)
	}
}
