package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"fioreria/internal/config"
	"fioreria/internal/database"
	"fioreria/internal/handlers"
	"fioreria/internal/notify"
	"fioreria/internal/ordering"
	"fioreria/internal/payments"
	"fioreria/internal/shipping"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("⚠️ product index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("⚠️ order index warning: %v", err)
	}
	if err := database.EnsureNotificationIndexes(db); err != nil {
		log.Printf("⚠️ notification index warning: %v", err)
	}

	store := database.NewStore(db)
	coordinator := ordering.NewCoordinator(store, config.AppEnv.DefaultCountry)
	zone := shipping.NewHTTPClient(config.AppEnv.ZoneServiceURL)
	gateway := payments.NewHTTPGateway(config.AppEnv.PaymentGatewayURL)
	notifier := notify.LogNotifier{}

	sessions := handlers.NewSessionManager(config.AppEnv.SessionTTL)
	go sessions.Sweep(time.Minute)

	r := gin.Default()

	r.GET("/products", handlers.GetProducts(db))

	order := r.Group("/order")
	{
		order.POST("/sessions", handlers.OpenOrderSession(db, sessions, coordinator, gateway, zone, notifier))
		order.PATCH("/sessions/:id", handlers.UpdateOrderSession(sessions))
		order.POST("/sessions/:id/validate-address", handlers.ValidateSessionAddress(sessions))
		order.GET("/sessions/:id/quote", handlers.GetSessionQuote(sessions))
		order.POST("/sessions/:id/pay-later", handlers.SubmitOrder(sessions, config.AppEnv.JWTSecret))
		order.POST("/sessions/:id/checkout", handlers.CheckoutOrder(sessions, config.AppEnv.JWTSecret))
		order.DELETE("/sessions/:id", handlers.CloseOrderSession(sessions))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
