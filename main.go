package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"marketplace-service/internal/auth"
	"marketplace-service/internal/db"
	"marketplace-service/internal/filter"
	"marketplace-service/internal/handlers"
	"marketplace-service/internal/middleware"
	"marketplace-service/internal/notifications"
	"marketplace-service/internal/observability"
	"marketplace-service/internal/rabbitmq"
	"marketplace-service/internal/repositories"
	"marketplace-service/internal/services"
	"marketplace-service/internal/tracing"
	"marketplace-service/internal/ws"
)

const serviceName = "marketplace-service"

func main() {
	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "marketplace.events"))
	defer publisher.Close()
	log.Printf("level=info msg=\"event publisher ready\" mode=%s", rabbitmq.PublisherMode(publisher))

	notifier := notifications.NewEmitter(publisher, serviceName, getEnv("ENVIRONMENT", "dev"))

	var redisClient *redis.Client
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		log.Printf("level=info msg=\"redis fan-out enabled\" addr=%s", addr)
	}

	listingRepo := repositories.NewListingRepo(database)
	offerRepo := repositories.NewOfferRepo(database)
	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	memberRepo := repositories.NewMemberRepo(database)

	listingService := services.NewListingService(listingRepo)
	chatService := services.NewChatService(roomRepo, listingRepo, listingService)
	offerService := services.NewOfferService(offerRepo, listingRepo, memberRepo, chatService, notifier)
	messageService := services.NewMessageService(roomRepo, messageRepo, listingRepo, memberRepo, filter.NewProfanityFilter())

	hub := ws.NewHub(redisClient)
	go hub.Run(ctx)

	verifier := auth.NewJWTVerifier(getEnv("JWT_SECRET", "dev-secret"))

	listingHandler := handlers.NewListingHandler(listingService, offerService, chatService)
	offerHandler := handlers.NewOfferHandler(offerService)
	roomHandler := handlers.NewRoomHandler(chatService, messageService, hub)
	liveHandler := ws.NewLiveHandler(hub, chatService, messageService, verifier)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.POST("/listings", authMiddleware, listingHandler.Create)
	router.GET("/listings", authMiddleware, listingHandler.List)
	router.GET("/listings/:listing_id", authMiddleware, listingHandler.Get)
	router.POST("/listings/:listing_id/bump", authMiddleware, listingHandler.Bump)
	router.PATCH("/listings/:listing_id/status", authMiddleware, listingHandler.UpdateStatus)
	router.DELETE("/listings/:listing_id", authMiddleware, listingHandler.Delete)
	router.POST("/listings/:listing_id/price-offers", authMiddleware, listingHandler.CreateOffer)
	router.GET("/listings/:listing_id/price-offers", authMiddleware, listingHandler.ListOffers)
	router.GET("/listings/:listing_id/chat-rooms", authMiddleware, listingHandler.ListRooms)

	router.POST("/price-offers/:offer_id/accept", authMiddleware, offerHandler.Accept)
	router.POST("/price-offers/:offer_id/reject", authMiddleware, offerHandler.Reject)

	router.POST("/chat-rooms", authMiddleware, roomHandler.Start)
	router.GET("/chat-rooms", authMiddleware, roomHandler.List)
	router.GET("/chat-rooms/:room_id", authMiddleware, roomHandler.Get)
	router.GET("/chat-rooms/:room_id/messages", authMiddleware, roomHandler.Messages)
	router.POST("/chat-rooms/:room_id/messages", authMiddleware, roomHandler.PostMessage)
	router.POST("/chat-rooms/:room_id/read", authMiddleware, roomHandler.MarkRead)
	router.POST("/chat-rooms/:room_id/reserve", authMiddleware, roomHandler.Reserve)
	router.POST("/chat-rooms/:room_id/unreserve", authMiddleware, roomHandler.Unreserve)
	router.POST("/chat-rooms/:room_id/complete", authMiddleware, roomHandler.Complete)
	router.POST("/chat-rooms/:room_id/leave", authMiddleware, roomHandler.Leave)

	router.GET("/ws", liveHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, publisher, os.Getenv("DEBUG_ROUTES") == "true")

	port := getEnv("PORT", "8083")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
