package tlscore

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SessionStore is a SessionManager backed by SQLite, for endpoints whose
// resumption state must survive the process. Establish and Invalidate
// are best-effort: storage failures are logged, never surfaced into the
// record-layer path.
type SessionStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// Sessions the client no longer has time to use are not worth returning.
const sessionValidityMargin = 10 * time.Second

func OpenSessionStore(path string, logger *zap.Logger) (*SessionStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	sqlStmt := `
	create table if not exists sessions (id blob not null primary key,
		data blob not null,
		valid_until integer not null);
	`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, err
	}
	return &SessionStore{db: db, logger: logger}, nil
}

func (s *SessionStore) Close() error {
	return s.db.Close()
}

func (s *SessionStore) Establish(id []byte, data *SessionData) {
	var lifetime time.Duration
	if data.Ticket != nil {
		lifetime = time.Duration(data.Ticket.Lifetime) * time.Second
	}
	validUntil := time.Now().Add(lifetime).Unix()

	stmt, err := s.db.Prepare("insert or replace into sessions values (?, ?, ?)")
	if err != nil {
		s.logger.Warn("session store: prepare failed", zap.Error(err))
		return
	}
	defer stmt.Close()
	if _, err := stmt.Exec(id, marshalSessionData(data), validUntil); err != nil {
		s.logger.Warn("session store: insert failed", zap.Error(err))
		return
	}
	s.logger.Debug("session established",
		zap.Int("id_bytes", len(id)),
		zap.Uint32("max_early_data", data.MaxEarlyData))
}

func (s *SessionStore) Invalidate(id []byte) {
	if _, err := s.db.Exec("delete from sessions where id = ?", id); err != nil {
		s.logger.Warn("session store: delete failed", zap.Error(err))
	}
}

// Resume returns the stored session for id if it has not expired.
func (s *SessionStore) Resume(id []byte) (*SessionData, bool) {
	stmt, err := s.db.Prepare("select data, valid_until from sessions where id = ?")
	if err != nil {
		s.logger.Warn("session store: prepare failed", zap.Error(err))
		return nil, false
	}
	defer stmt.Close()

	var raw []byte
	var validUntil int64
	if err := stmt.QueryRow(id).Scan(&raw, &validUntil); err != nil {
		if err != sql.ErrNoRows {
			s.logger.Warn("session store: query failed", zap.Error(err))
		}
		return nil, false
	}
	if s.expired(time.Unix(validUntil, 0)) {
		return nil, false
	}

	data, err := unmarshalSessionData(raw)
	if err != nil {
		s.logger.Warn("session store: corrupt session data", zap.Error(err))
		return nil, false
	}
	return data, true
}

func (s *SessionStore) expired(validUntil time.Time) bool {
	return validUntil.Before(time.Now().Add(sessionValidityMargin))
}

// Prune deletes expired sessions and reports how many were removed.
func (s *SessionStore) Prune() int {
	res, err := s.db.Exec("delete from sessions where valid_until < ?", time.Now().Unix())
	if err != nil {
		s.logger.Warn("session store: prune failed", zap.Error(err))
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}
