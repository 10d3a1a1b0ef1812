package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"fioreria/internal/config"
	"fioreria/internal/notify"
	"fioreria/internal/ordering"
	"fioreria/internal/payments"
	"fioreria/internal/shipping"
)

/* =========================
   REQUEST DTOs
========================= */

type openSessionRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

type draftUpdateRequest struct {
	CustomerName    *string `json:"customerName"`
	CustomerEmail   *string `json:"customerEmail"`
	CustomerPhone   *string `json:"customerPhone"`
	Quantity        *int    `json:"quantity"`
	SpecialRequests *string `json:"specialRequests"`
	DeliveryDate    *string `json:"deliveryDate"`
	DeliveryAddress *string `json:"deliveryAddress"`
}

func (r draftUpdateRequest) toUpdate() ordering.DraftUpdate {
	return ordering.DraftUpdate{
		CustomerName:    r.CustomerName,
		CustomerEmail:   r.CustomerEmail,
		CustomerPhone:   r.CustomerPhone,
		Quantity:        r.Quantity,
		SpecialRequests: r.SpecialRequests,
		DeliveryDate:    r.DeliveryDate,
		DeliveryAddress: r.DeliveryAddress,
	}
}

/* =========================
   SESSION LIFECYCLE
========================= */

func OpenOrderSession(db *mongo.Database, sessions *SessionManager, coordinator *ordering.Coordinator, gateway payments.Gateway, zone shipping.Client, notifier notify.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/sessions"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		var req openSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		product, err := findProduct(c.Request.Context(), db, req.ProductID)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		validator := shipping.NewValidator(zone, config.AppEnv.AddressQuiet, config.AppEnv.AddressMinLength)
		session := ordering.NewSession(product, coordinator, gateway, notifier, validator)
		id := sessions.Put(session)

		log.Printf("[%s] session %s opened for product %s", route, id, product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"sessionId": id,
			"product":   product,
			"draft":     session.Draft(),
		})
	}
}

func UpdateOrderSession(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /order/sessions/:id"
		defer handlePanic(c, route)

		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		var req draftUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid request body")
			return
		}

		draft := session.Update(req.toUpdate())
		c.JSON(http.StatusOK, gin.H{
			"draft": draft,
			"quote": session.Quote(),
		})
	}
}

func ValidateSessionAddress(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/sessions/:id/validate-address"
		defer handlePanic(c, route)

		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		ctx, cancel := contextWithTimeout(c, 15*time.Second)
		defer cancel()

		result, deliverable := session.ValidateAddress(ctx)
		c.JSON(http.StatusOK, gin.H{
			"result":      result,
			"deliverable": deliverable,
			"quote":       session.Quote(),
		})
	}
}

func GetSessionQuote(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /order/sessions/:id/quote"
		defer handlePanic(c, route)

		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		c.JSON(http.StatusOK, session.Quote())
	}
}

func CloseOrderSession(sessions *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /order/sessions/:id"
		defer handlePanic(c, route)

		session, ok := sessions.Remove(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		session.Close()
		c.Status(http.StatusNoContent)
	}
}

/* =========================
   SUBMISSION
========================= */

// SubmitOrder is the pay-later branch: the order is created directly in
// pending status and staff get a follow-up notification.
func SubmitOrder(sessions *SessionManager, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/sessions/:id/pay-later"
		defer handlePanic(c, route)

		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			log.Println("[ORDER] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := contextWithTimeout(c, 15*time.Second)
		defer cancel()

		order, err := session.PayLater(ctx, userID)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"message":     "order created",
		})
	}
}

// CheckoutOrder is the pay-now branch: the payment gateway obtains the
// order id through the session's callback before charging.
func CheckoutOrder(sessions *SessionManager, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /order/sessions/:id/checkout"
		defer handlePanic(c, route)

		session, ok := sessions.Get(c.Param("id"))
		if !ok {
			respondWithError(c, http.StatusNotFound, route, "session not found")
			return
		}

		userID, err := userIDFromHeader(c.GetHeader("Authorization"), jwtSecret)
		if err != nil {
			log.Println("[ORDER] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := contextWithTimeout(c, 45*time.Second)
		defer cancel()

		order, err := session.PayNow(ctx, userID)
		if err != nil {
			respondOrderError(c, route, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"orderId":     order.ID.Hex(),
			"orderNumber": order.OrderNumber,
			"message":     "payment completed",
		})
	}
}

func respondOrderError(c *gin.Context, route string, err error) {
	var gateErr *ordering.GateError
	if errors.As(err, &gateErr) {
		log.Printf("[%s] gate rejected submission: %v", route, gateErr)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":         gateErr.Error(),
			"missingFields": gateErr.MissingFields,
		})
		return
	}

	if errors.Is(err, ordering.ErrSubmissionInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "submission already in progress"})
		return
	}

	var gatewayErr *payments.GatewayError
	if errors.As(err, &gatewayErr) {
		// The collaborator's message passes through to the caller as-is.
		respondWithError(c, http.StatusBadGateway, route, gatewayErr.Error())
		return
	}

	var orphanErr *ordering.OrphanedOrderError
	if errors.As(err, &orphanErr) {
		// Orphan id already logged by the coordinator for reconciliation.
		respondWithError(c, http.StatusInternalServerError, route, "order could not be completed, please retry")
		return
	}

	respondWithError(c, http.StatusInternalServerError, route, "order could not be created, please retry")
}

func userIDFromHeader(header, secret string) (*primitive.ObjectID, error) {
	raw := strings.TrimSpace(header)
	if raw == "" {
		// Guest order.
		return nil, nil
	}

	parts := strings.Split(raw, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid token format")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	userIDValue, ok := claims["userId"].(string)
	if !ok || strings.TrimSpace(userIDValue) == "" {
		return nil, errors.New("userId claim missing")
	}

	userID, err := primitive.ObjectIDFromHex(userIDValue)
	if err != nil {
		return nil, errors.New("invalid userId")
	}

	return &userID, nil
}
