package main

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"messageapp/internal/adapter/api"
	"messageapp/internal/adapter/api/handler"
	apimiddleware "messageapp/internal/adapter/api/middleware"
	"messageapp/internal/adapter/api/router"
	"messageapp/internal/adapter/repository"
	"messageapp/internal/infrastructure/firebase"
	"messageapp/internal/infrastructure/storage"
	"messageapp/internal/infrastructure/websocket"
	"messageapp/internal/usecase"
	"messageapp/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	authClient := firebase.NewAuthClient(fbAuth)

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	postRepo := repository.NewFirestorePostRepository(firestoreClient)

	directory := usecase.NewParticipantDirectory(userRepo)

	authUseCase := usecase.NewAuthUseCase(authClient, userRepo)
	userUseCase := usecase.NewUserUseCase(userRepo, directory)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, directory)
	feedAggregator := usecase.NewFeedAggregator(postRepo, directory)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	handler.Setup(authUseCase, userUseCase, chatUseCase, feedAggregator, storageClient, cfg.MaxUploadBytes)
	handler.SetupFileHandler(storageClient, cfg.MaxUploadBytes)
	handler.SetupHealthHandler()
	handler.SetupWebSocketHandler(wsManager, authClient, chatRepo, directory)

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)

	router.Setup(e, authMiddleware)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
