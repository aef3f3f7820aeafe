package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/studyhallhq/tutor-agent/internal/adapters/http"
	"github.com/studyhallhq/tutor-agent/internal/adapters/llm"
	filestore "github.com/studyhallhq/tutor-agent/internal/adapters/storage/file"
	firestorestore "github.com/studyhallhq/tutor-agent/internal/adapters/storage/firestore"
	memstore "github.com/studyhallhq/tutor-agent/internal/adapters/storage/memory"
	"github.com/studyhallhq/tutor-agent/internal/app/auth"
	"github.com/studyhallhq/tutor-agent/internal/app/quiz"
	"github.com/studyhallhq/tutor-agent/internal/app/session"
	"github.com/studyhallhq/tutor-agent/internal/config"
	"github.com/studyhallhq/tutor-agent/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// LLM: mock or Gemini by config (useful for dev)
	var (
		textGen domain.TextGenerator
		err     error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using mock text generator")
		textGen = llm.NewMockLLM()
	} else {
		log.Println("[LLM] Using Gemini text generator")
		textGen, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			log.Fatalf("error initializing Gemini client: %v", err)
		}
	}

	// Storage: file (default), memory or Firestore
	var conversations domain.ConversationStore
	var accounts domain.AccountStore

	switch cfg.StorageBackend {
	case "firestore":
		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		convStore, acctStore, err := firestorestore.NewStores(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore stores: %v", err)
		}
		conversations = convStore
		accounts = acctStore

	case "memory":
		log.Println("[STORE] Using in-memory storage")
		conversations = memstore.NewConversationStore()
		accounts = memstore.NewAccountStore()

	default:
		log.Printf("[STORE] Using file storage (dir=%s)", cfg.DataDir)
		conversations = filestore.NewConversationStore(cfg.DataDir)
		accounts = filestore.NewAccountStore(cfg.DataDir)
	}

	sessionSvc, err := session.NewService(ctx, textGen, conversations)
	if err != nil {
		log.Fatalf("error loading conversation state: %v", err)
	}
	quizSvc := quiz.NewService(textGen, sessionSvc)
	authSvc := auth.NewService(accounts, cfg.JWTSecret, cfg.TokenTTL)

	handler := httpadapter.NewServer(authSvc, sessionSvc, quizSvc)

	addr := ":" + cfg.Port
	log.Println("Tutor API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
