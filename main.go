package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "pursuit.db", "path to SQLite database ('' disables persistence)")
	clientDir := flag.String("client", "", "path to static client directory ('' disables)")
	tuningPath := flag.String("tuning", "", "path to YAML tuning overrides")
	flag.Parse()

	tuning, err := LoadTuning(*tuningPath)
	if err != nil {
		log.Fatalf("tuning: %v", err)
	}

	var db *DB
	if *dbPath != "" {
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer db.Close()
	}

	hub := NewHub(db, tuning)
	go hub.Run()

	janitorStop := make(chan struct{})
	go hub.registry.RunJanitor(30*time.Second, janitorStop)

	mux := SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		if *clientDir != "" {
			log.Printf("Serving client files from %s", *clientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	close(janitorStop)
	server.Close()
}
