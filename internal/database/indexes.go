package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureProductIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("products").Indexes()

	nameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("name_index"),
	}

	log.Println("EnsureProductIndexes: creating name_index index")
	_, err := indexes.CreateOne(ctx, nameIndex)
	if err != nil {
		log.Println("EnsureProductIndexes: name index error:", err)
		return err
	}
	log.Println("EnsureProductIndexes: name_index index created")
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("orders").Indexes()

	orderNumberIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "orderNumber", Value: 1}},
		Options: options.Index().
			SetName("orderNumber_unique").
			SetUnique(true),
	}

	log.Println("EnsureOrderIndexes: creating orderNumber_unique index")
	_, err := indexes.CreateOne(ctx, orderNumberIndex)
	if err != nil {
		log.Println("EnsureOrderIndexes: orderNumber index error:", err)
		return err
	}

	itemOrderIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetName("orderId_index"),
	}

	_, err = db.Collection("order_items").Indexes().CreateOne(ctx, itemOrderIndex)
	if err != nil {
		log.Println("EnsureOrderIndexes: order_items orderId index error:", err)
		return err
	}
	log.Println("EnsureOrderIndexes: order indexes created")
	return nil
}

func EnsureNotificationIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := db.Collection("order_notifications").Indexes()

	unreadIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("unread_index"),
	}

	log.Println("EnsureNotificationIndexes: creating unread_index index")
	_, err := indexes.CreateOne(ctx, unreadIndex)
	if err != nil {
		log.Println("EnsureNotificationIndexes: unread index error:", err)
		return err
	}
	log.Println("EnsureNotificationIndexes: unread_index index created")
	return nil
}
