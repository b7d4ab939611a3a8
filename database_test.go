package main

import (
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDBPlayers(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreatePlayer("alice", "hash1")
	if err != nil {
		t.Fatalf("create player: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a nonzero player id")
	}

	p, err := db.GetPlayerByUsername("alice")
	if err != nil || p == nil {
		t.Fatalf("lookup failed: %v %v", p, err)
	}
	if p.ID != id || p.PassHash != "hash1" {
		t.Errorf("unexpected row %+v", p)
	}

	p, err = db.GetPlayerByUsername("nobody")
	if err != nil || p != nil {
		t.Errorf("missing player should yield nil, nil; got %v, %v", p, err)
	}

	exists, err := db.UsernameExists("alice")
	if err != nil || !exists {
		t.Error("alice should exist")
	}
	if _, err := db.CreatePlayer("alice", "hash2"); err == nil {
		t.Error("duplicate username should be rejected by the unique index")
	}
}

func TestDBSettings(t *testing.T) {
	db := newTestDB(t)

	if got := db.GetSetting("jwt_secret"); got != "" {
		t.Errorf("absent setting should be empty, got %q", got)
	}
	if err := db.SetSetting("jwt_secret", "s1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetSetting("jwt_secret", "s2"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := db.GetSetting("jwt_secret"); got != "s2" {
		t.Errorf("expected upserted value, got %q", got)
	}
}

func TestDBRecordResult(t *testing.T) {
	db := newTestDB(t)

	aliceID, _ := db.CreatePlayer("alice", "h")
	db.RecordResult(Result{
		RoomID:   "r1",
		RoomName: "Arena",
		Winner:   "alice",
		WinnerID: aliceID,
		Reason:   ReasonCaught,
		Duration: 42.5,
		Scores: []ScoreLine{
			{ActorID: "a", Nickname: "alice", PlayerID: aliceID, Points: 30},
			{ActorID: "b", Nickname: "guest", PlayerID: 0, Points: 10},
		},
	})

	stats, err := db.GetProfileStats(aliceID)
	if err != nil || stats == nil {
		t.Fatalf("profile stats: %v %v", stats, err)
	}
	if stats.GamesPlayed != 1 || stats.Wins != 1 || stats.TotalPoints != 30 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestDBWinCreditByAccount(t *testing.T) {
	db := newTestDB(t)

	aliceID, _ := db.CreatePlayer("alice", "h")
	bobID, _ := db.CreatePlayer("bob", "h")

	// Alice plays under a custom nickname; a guest plays under "alice".
	// Win credit keys on the account id, not the nickname.
	db.RecordResult(Result{RoomName: "g1", Winner: "Shadow", WinnerID: aliceID, Scores: []ScoreLine{
		{Nickname: "Shadow", PlayerID: aliceID, Points: 20},
		{Nickname: "alice", PlayerID: 0, Points: 5},
	}})
	db.RecordResult(Result{RoomName: "g2", Winner: "bob", WinnerID: 0, Scores: []ScoreLine{
		{Nickname: "bob", PlayerID: 0, Points: 15}, // guest sharing bob's name
		{Nickname: "bob", PlayerID: bobID, Points: 5},
	}})

	alice, err := db.GetProfileStats(aliceID)
	if err != nil {
		t.Fatal(err)
	}
	if alice.Wins != 1 || alice.TotalPoints != 20 {
		t.Errorf("custom-nickname win should credit alice: %+v", alice)
	}

	bob, err := db.GetProfileStats(bobID)
	if err != nil {
		t.Fatal(err)
	}
	if bob.Wins != 0 {
		t.Errorf("a guest win under a colliding nickname must not credit bob: %+v", bob)
	}
}

func TestDBProfileStatsUnknownPlayer(t *testing.T) {
	db := newTestDB(t)
	stats, err := db.GetProfileStats(999)
	if err != nil || stats != nil {
		t.Errorf("unknown player should yield nil, nil; got %v, %v", stats, err)
	}
}

func TestDBLeaderboard(t *testing.T) {
	db := newTestDB(t)

	aliceID, _ := db.CreatePlayer("alice", "h")
	bobID, _ := db.CreatePlayer("bob", "h")

	db.RecordResult(Result{RoomName: "g1", Winner: "bob", WinnerID: bobID, Scores: []ScoreLine{
		{Nickname: "alice", PlayerID: aliceID, Points: 10},
		{Nickname: "bob", PlayerID: bobID, Points: 40},
	}})
	db.RecordResult(Result{RoomName: "g2", Winner: "alice", WinnerID: aliceID, Scores: []ScoreLine{
		{Nickname: "alice", PlayerID: aliceID, Points: 20},
		{Nickname: "guest", PlayerID: 0, Points: 50}, // guests never rank
	}})

	board, err := db.GetLeaderboard(10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 ranked players, got %d", len(board))
	}
	if board[0].Username != "bob" || board[0].TotalPoints != 40 || board[0].Rank != 1 {
		t.Errorf("unexpected first row %+v", board[0])
	}
	if board[1].Username != "alice" || board[1].TotalPoints != 30 || board[1].Wins != 1 {
		t.Errorf("unexpected second row %+v", board[1])
	}
}
