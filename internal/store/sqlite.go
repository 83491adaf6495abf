package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"intraday-trader/internal/errors"
	"intraday-trader/internal/models"
)

// SQLiteStore implements DataStore on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	date         TEXT PRIMARY KEY,
	realized_pnl REAL NOT NULL DEFAULT 0,
	updated_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS signals (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	date         TEXT NOT NULL,
	symbol       TEXT NOT NULL,
	direction    TEXT NOT NULL,
	strength     REAL NOT NULL,
	price        REAL NOT NULL,
	atr          REAL NOT NULL,
	generated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_date ON signals(date);

CREATE TABLE IF NOT EXISTS positions (
	date           TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	direction      TEXT NOT NULL,
	entry_price    REAL NOT NULL,
	quantity       INTEGER NOT NULL,
	stop_loss      REAL NOT NULL,
	take_profit    REAL NOT NULL,
	state          TEXT NOT NULL,
	exit_price     REAL NOT NULL DEFAULT 0,
	realized_pnl   REAL NOT NULL DEFAULT 0,
	last_price     REAL NOT NULL DEFAULT 0,
	opened_at      TIMESTAMP NOT NULL,
	closed_at      TIMESTAMP,
	PRIMARY KEY (date, symbol)
);
`

// Open opens (creating if needed) the database at path and applies the
// schema. WAL mode keeps the CLI responsive while the session runner
// writes.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating database directory")
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabaseError, err.Error())
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabaseError, "applying schema: %v", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSessionState(state SessionState) error {
	_, err := s.db.Exec(`
		INSERT INTO session_state (date, realized_pnl, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			realized_pnl = excluded.realized_pnl,
			updated_at   = excluded.updated_at`,
		state.Date, state.RealizedPnL, time.Now())
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "saving session state: %v", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSessionState(date string) (SessionState, bool, error) {
	var state SessionState
	err := s.db.QueryRow(`
		SELECT date, realized_pnl, updated_at FROM session_state WHERE date = ?`,
		date).Scan(&state.Date, &state.RealizedPnL, &state.UpdatedAt)
	if err == sql.ErrNoRows {
		return SessionState{}, false, nil
	}
	if err != nil {
		return SessionState{}, false, errors.Wrapf(errors.ErrDatabaseError, "loading session state: %v", err)
	}
	return state, true, nil
}

func (s *SQLiteStore) SaveSignal(rec SignalRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO signals (date, symbol, direction, strength, price, atr, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Date, rec.Symbol, string(rec.Direction), rec.Strength,
		rec.Price, rec.ATR, rec.GeneratedAt)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "saving signal: %v", err)
	}
	return nil
}

func (s *SQLiteStore) LoadSignals(date string) ([]SignalRecord, error) {
	rows, err := s.db.Query(`
		SELECT date, symbol, direction, strength, price, atr, generated_at
		FROM signals WHERE date = ? ORDER BY id`, date)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "loading signals: %v", err)
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		var direction string
		if err := rows.Scan(&rec.Date, &rec.Symbol, &direction, &rec.Strength,
			&rec.Price, &rec.ATR, &rec.GeneratedAt); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabaseError, "scanning signal: %v", err)
		}
		rec.Direction = models.Direction(direction)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SavePosition(date string, pos models.Position) error {
	var closedAt interface{}
	if !pos.ClosedAt.IsZero() {
		closedAt = pos.ClosedAt
	}
	_, err := s.db.Exec(`
		INSERT INTO positions (date, symbol, direction, entry_price, quantity,
			stop_loss, take_profit, state, exit_price, realized_pnl,
			last_price, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, symbol) DO UPDATE SET
			state        = excluded.state,
			exit_price   = excluded.exit_price,
			realized_pnl = excluded.realized_pnl,
			last_price   = excluded.last_price,
			closed_at    = excluded.closed_at`,
		date, pos.Symbol, string(pos.Direction), pos.EntryPrice, pos.Quantity,
		pos.StopLoss, pos.TakeProfit, string(pos.State), pos.ExitPrice,
		pos.RealizedPnL, pos.LastPrice, pos.OpenedAt, closedAt)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "saving position: %v", err)
	}
	return nil
}

func (s *SQLiteStore) LoadPositions(date string) ([]models.Position, error) {
	rows, err := s.db.Query(`
		SELECT symbol, direction, entry_price, quantity, stop_loss, take_profit,
			state, exit_price, realized_pnl, last_price, opened_at, closed_at
		FROM positions WHERE date = ? ORDER BY symbol`, date)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "loading positions: %v", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var pos models.Position
		var direction, state string
		var closedAt sql.NullTime
		if err := rows.Scan(&pos.Symbol, &direction, &pos.EntryPrice, &pos.Quantity,
			&pos.StopLoss, &pos.TakeProfit, &state, &pos.ExitPrice,
			&pos.RealizedPnL, &pos.LastPrice, &pos.OpenedAt, &closedAt); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabaseError, "scanning position: %v", err)
		}
		pos.Direction = models.Direction(direction)
		pos.State = models.PositionState(state)
		if closedAt.Valid {
			pos.ClosedAt = closedAt.Time
		}
		out = append(out, pos)
	}
	return out, rows.Err()
}
