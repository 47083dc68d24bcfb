package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"forum-go/internal/config"
	"forum-go/internal/forumtypes"
	"forum-go/internal/handlers/apiserver"
	appKafka "forum-go/internal/kafka"
	"forum-go/internal/middleware"
	appRedis "forum-go/internal/redis"
	"forum-go/internal/services"
	"forum-go/internal/storage"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
)

func main() {
	// 1. Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("API server configuration loaded.")

	// 2. Database
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Printf("Warning: database migration may have failed: %v", err)
	}
	log.Println("API server database ready.")

	// 3. Redis client and token blacklist
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err = redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	log.Println("Connected to Redis.")

	// 4. Repositories
	userRepo := storage.NewGormUserRepository(db)
	groupRepo := storage.NewGormGroupRepository(db)
	discussionRepo := storage.NewGormDiscussionRepository(db)
	resourceRepo := storage.NewGormResourceRepository(db)

	// 5. Kafka producer for the group event feed
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	log.Println("Kafka producer initialized.")

	// 6. File storage
	var storageService forumtypes.StorageService
	storageBaseURL := "/uploads"
	switch cfg.Storage.Type {
	case "local":
		storageService, err = storage.NewLocalStorageService(cfg.Storage, storageBaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
	default:
		log.Fatalf("Unsupported storage type: %s", cfg.Storage.Type)
	}

	// 7. Services
	gate := services.NewAccessGate(groupRepo, discussionRepo)
	authService := services.NewAuthService(userRepo, tokenBlacklist, cfg)
	groupService := services.NewGroupService(db, groupRepo, storageService, kfkProducer, cfg.Kafka)
	discussionService := services.NewDiscussionService(discussionRepo, gate)
	resourceService := services.NewResourceService(resourceRepo, discussionRepo, gate, storageService)

	// 8. Handlers
	authHandler := apiserver.NewAuthHandler(authService)
	groupHandler := apiserver.NewGroupHandler(groupService)
	discussionHandler := apiserver.NewDiscussionHandler(discussionService)
	resourceHandler := apiserver.NewResourceHandler(resourceService, cfg.Storage)

	// 9. Routes
	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	// Logout lives under the protected router: it needs the claims to find
	// the jti to blacklist.
	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	// Group lifecycle and membership
	apiRouter.HandleFunc("/groups", groupHandler.CreateGroupHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/mine", groupHandler.GetMyGroupsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/search", groupHandler.SearchGroupsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}", groupHandler.GetGroupHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}", groupHandler.DeleteGroupHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/join", groupHandler.JoinGroupHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/leave", groupHandler.LeaveGroupHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/members", groupHandler.GetGroupMembersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/members/{userID:[0-9]+}", groupHandler.RemoveMemberHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/members/{userID:[0-9]+}/role", groupHandler.ChangeRoleHandler).Methods(http.MethodPut)

	// Discussions and comments
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/discussions", discussionHandler.CreateDiscussionHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/discussions", discussionHandler.ListDiscussionsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/discussions/{discussionID:[0-9]+}", discussionHandler.GetDiscussionHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/discussions/{discussionID:[0-9]+}", discussionHandler.UpdateDiscussionHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/discussions/{discussionID:[0-9]+}", discussionHandler.DeleteDiscussionHandler).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/discussions/{discussionID:[0-9]+}/comments", discussionHandler.CreateCommentHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/discussions/{discussionID:[0-9]+}/comments", discussionHandler.ListCommentsHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/comments/{commentID:[0-9]+}", discussionHandler.UpdateCommentHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/comments/{commentID:[0-9]+}", discussionHandler.DeleteCommentHandler).Methods(http.MethodDelete)

	// Group resources
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/resources", resourceHandler.UploadResourceHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/groups/{groupID:[0-9]+}/resources", resourceHandler.ListResourcesHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/resources/{resourceID:[0-9]+}", resourceHandler.DeleteResourceHandler).Methods(http.MethodDelete)

	// Serve uploaded files when storing locally
	if cfg.Storage.Type == "local" {
		staticPath := strings.TrimSuffix(storageBaseURL, "/") + "/"
		localDir := http.Dir(cfg.Storage.LocalPath)
		r.PathPrefix(staticPath).Handler(http.StripPrefix(staticPath, http.FileServer(localDir)))
		log.Printf("Serving uploaded files at %s from %s", staticPath, cfg.Storage.LocalPath)
	}

	// 10. HTTP server with CORS and graceful shutdown
	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)

	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.APIServer.ReadTimeout,
		WriteTimeout:   cfg.APIServer.WriteTimeout,
		IdleTimeout:    time.Second * 60,
		MaxHeaderBytes: cfg.APIServer.MaxHeaderBytes,
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received, stopping API server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server forced to shut down: %v", err)
	}

	log.Println("API server stopped.")
}
