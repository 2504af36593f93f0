package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olanrewaju08325/typing-tester/internal/db"
	"github.com/olanrewaju08325/typing-tester/internal/handlers"
	"github.com/olanrewaju08325/typing-tester/internal/manager"
	"github.com/olanrewaju08325/typing-tester/internal/progression"
	"github.com/olanrewaju08325/typing-tester/internal/server"
	"github.com/olanrewaju08325/typing-tester/internal/store"
)

func init() {
	godotenv.Load()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
}

func main() {
	port := 8080
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		port = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users     store.UserStore
		levels    store.LevelStore
		sentences store.SentenceStore
	)

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		mongoStore, err := db.Connect(ctx, uri)
		if err != nil {
			log.Fatal("Could not connect to MongoDB: ", err)
		}
		defer mongoStore.Close(context.Background())
		users, levels, sentences = mongoStore, mongoStore, mongoStore
		log.Printf("Using MongoDB store")
	} else {
		memStore := store.NewMemoryStore(store.DefaultLevels())
		users, levels, sentences = memStore, memStore, memStore
		log.Printf("MONGO_URI not set, using in-memory store")
	}

	rooms := manager.NewRoomManager()
	rooms.StartJanitor(ctx)

	engine := progression.NewEngine(users, levels)
	handler := handlers.New(rooms, engine, sentences)
	srv := server.New(port, handler)

	go func() {
		log.Printf("Server starting on http://localhost:%d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
