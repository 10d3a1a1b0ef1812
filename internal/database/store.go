package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"fioreria/internal/models"
)

const writeTimeout = 5 * time.Second

// Store is the Mongo-backed order store. Each insert is an independent
// write; the ordering coordinator owns the policy for partial failures
// between them.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

func (s *Store) InsertOrder(ctx context.Context, order models.Order) (models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	res, err := s.db.Collection("orders").InsertOne(ctx, order)
	if err != nil {
		return models.Order{}, err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return order, nil
}

func (s *Store) InsertOrderItem(ctx context.Context, item models.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := s.db.Collection("order_items").InsertOne(ctx, item)
	return err
}

func (s *Store) InsertNotification(ctx context.Context, notification models.OrderNotification) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := s.db.Collection("order_notifications").InsertOne(ctx, notification)
	return err
}
