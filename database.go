package main

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. The game core only hands it
// already-resolved data: no query semantics leak back into the rooms.
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// GameRow represents a finished match
type GameRow struct {
	ID        int64
	RoomName  string
	Winner    string
	WinnerID  int64 // 0 for guest and AI wins
	Duration  float64
	CreatedAt time.Time
}

// ScoreRow represents one participant's points in a finished match
type ScoreRow struct {
	GameID   int64
	PlayerID int64 // 0 for guests
	Nickname string
	Points   int
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_name TEXT NOT NULL DEFAULT '',
		winner TEXT NOT NULL DEFAULT '',
		winner_id INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS scores (
		game_id INTEGER NOT NULL REFERENCES games(id),
		player_id INTEGER NOT NULL DEFAULT 0,
		nickname TEXT NOT NULL DEFAULT '',
		points INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_game ON scores(game_id);
	CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player_id);
	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetSetting returns a settings value, "" if absent.
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting upserts a settings value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CreatePlayer creates a new player account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPlayerByUsername returns a player by username
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetPlayerByID returns a player by ID
func (db *DB) GetPlayerByID(id int64) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE id = ?",
		id,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// RecordGame persists a finished match and returns its ID. winnerID is
// the winner's account id, 0 when a guest or the AI won; win credit is
// keyed on it, never on the nickname.
func (db *DB) RecordGame(roomName, winner string, winnerID int64, duration float64) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO games (room_name, winner, winner_id, duration) VALUES (?, ?, ?, ?)",
		roomName, winner, winnerID, duration,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordScore persists one participant's points for a game
func (db *DB) RecordScore(gameID, playerID int64, nickname string, points int) error {
	_, err := db.conn.Exec(
		"INSERT INTO scores (game_id, player_id, nickname, points) VALUES (?, ?, ?, ?)",
		gameID, playerID, nickname, points,
	)
	return err
}

// RecordResult writes a complete room result: one game row plus a score
// row per participant. Used as the registry's OnResult sink.
func (db *DB) RecordResult(res Result) {
	gameID, err := db.RecordGame(res.RoomName, res.Winner, res.WinnerID, res.Duration)
	if err != nil {
		log.Printf("db: record game: %v", err)
		return
	}
	for _, s := range res.Scores {
		if err := db.RecordScore(gameID, s.PlayerID, s.Nickname, s.Points); err != nil {
			log.Printf("db: record score for %s: %v", s.Nickname, err)
		}
	}
}

// ProfileStats aggregates a registered player's match history
type ProfileStats struct {
	GamesPlayed int
	Wins        int
	TotalPoints int
}

// GetProfileStats returns aggregate stats for a registered player
func (db *DB) GetProfileStats(playerID int64) (*ProfileStats, error) {
	p, err := db.GetPlayerByID(playerID)
	if err != nil || p == nil {
		return nil, err
	}

	s := &ProfileStats{}
	err = db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(points), 0) FROM scores WHERE player_id = ?",
		playerID,
	).Scan(&s.GamesPlayed, &s.TotalPoints)
	if err != nil {
		return nil, err
	}

	err = db.conn.QueryRow(
		"SELECT COUNT(*) FROM games WHERE winner_id = ?",
		playerID,
	).Scan(&s.Wins)
	return s, err
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	GamesPlayed int    `json:"games"`
	Wins        int    `json:"wins"`
	TotalPoints int    `json:"points"`
}

// GetLeaderboard returns registered players ranked by total points
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(
		`SELECT p.username, COUNT(s.game_id), COALESCE(SUM(s.points), 0),
		        COALESCE(SUM(CASE WHEN g.winner_id = p.id THEN 1 ELSE 0 END), 0)
		 FROM players p
		 JOIN scores s ON s.player_id = p.id
		 JOIN games g ON g.id = s.game_id
		 GROUP BY p.id
		 ORDER BY SUM(s.points) DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.GamesPlayed, &e.TotalPoints, &e.Wins); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}
