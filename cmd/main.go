package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bookshelf-api/configs"
	"bookshelf-api/internal/catalog"
	"bookshelf-api/internal/daemon"
	"bookshelf-api/internal/db"
	"bookshelf-api/internal/handlers"
	"bookshelf-api/internal/middleware"
	"bookshelf-api/internal/utils"
)

func main() {
	cfg := configs.LoadConfig()
	db.Connect(cfg.MongoURI)
	utils.InitJwtSecret(cfg.JWTSecret, cfg.JWTExpiryMinutes)

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(ctx, cfg.DBName); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	cancel()

	userColl := db.GetCollection(cfg.DBName, "users")
	bookColl := db.GetCollection(cfg.DBName, "books")
	userBookColl := db.GetCollection(cfg.DBName, "user_books")
	libraryColl := db.GetCollection(cfg.DBName, "libraries")
	libraryBookColl := db.GetCollection(cfg.DBName, "library_books")
	activityColl := db.GetCollection(cfg.DBName, "activity_logs")

	auditLogger := utils.Logger{Collection: activityColl}

	r := mux.NewRouter()
	r.Use(middleware.JSONMiddleware)
	r.Use(middleware.RequestLog(logger))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	})

	authHandler := handlers.NewAuthHandler(userColl, libraryColl, auditLogger)
	r.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	googleClient := catalog.NewClient(cfg.GoogleBooksURL, time.Duration(cfg.LookupTimeoutSeconds)*time.Second)

	publicHandler := handlers.NewPublicHandler(libraryColl, libraryBookColl)
	r.HandleFunc("/public/library/{slug}", publicHandler.ViewLibrary).Methods("GET")

	authed := r.PathPrefix("/").Subrouter()
	authed.Use(middleware.JWTAuthMiddleware)

	isbnHandler := handlers.NewISBNHandler(bookColl, googleClient, auditLogger)
	authed.HandleFunc("/isbn/{isbn}", isbnHandler.Resolve).Methods("GET")

	userBookHandler := handlers.NewUserBookHandler(bookColl, userBookColl, libraryBookColl, auditLogger)
	authed.HandleFunc("/books", userBookHandler.List).Methods("GET")
	authed.HandleFunc("/books", userBookHandler.DeleteMany).Methods("DELETE")
	authed.HandleFunc("/books/{isbn}", userBookHandler.Attach).Methods("POST")
	authed.HandleFunc("/books/{id}", userBookHandler.Update).Methods("PATCH")

	libraryHandler := handlers.NewLibraryHandler(libraryColl, libraryBookColl, auditLogger)
	authed.HandleFunc("/library", libraryHandler.Create).Methods("POST")
	authed.HandleFunc("/library", libraryHandler.List).Methods("GET")
	authed.HandleFunc("/library/{id}", libraryHandler.Update).Methods("PATCH")
	authed.HandleFunc("/library/{id}", libraryHandler.Delete).Methods("DELETE")

	libraryBookHandler := handlers.NewLibraryBookHandler(libraryColl, libraryBookColl, auditLogger)
	authed.HandleFunc("/librarybooks/missing-libraries", libraryBookHandler.MissingLibraries).Methods("GET")
	authed.HandleFunc("/librarybooks/{libraryId}", libraryBookHandler.AddBooks).Methods("POST")
	authed.HandleFunc("/librarybooks/{libraryId}", libraryBookHandler.ListBooks).Methods("GET")
	authed.HandleFunc("/librarybooks/{libraryId}", libraryBookHandler.RemoveBooks).Methods("DELETE")

	exporter := daemon.LogExporter{Coll: activityColl, Interval: 30 * time.Second, Logger: logger}
	exporter.Start()

	var server = http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port))
		log.Fatal(server.ListenAndServe())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	logger.Info("shutting down gracefully")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	db.Disconnect(shutdownCtx)
	logger.Info("server shut down")
}
