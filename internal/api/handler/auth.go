package handler

import (
	"net/http"
	"strings"
	"time"

	"anonchat/backend/internal/models"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const (
	tokenTTL  = 72 * time.Hour
	tokenIss  = "anonchat-service"
	userIDKey = "userID"
)

type anonymousRequest struct {
	Nickname  string   `json:"nickname"`
	Age       int      `json:"age"`
	Gender    string   `json:"gender"`
	Interests []string `json:"interests"`
}

// CreateAnonymousSession issues a fresh anonymous identity: a user row, a
// signed JWT and a Redis record so the token can be revoked before expiry.
func (h *Handler) CreateAnonymousSession(c *gin.Context) {
	var req anonymousRequest
	// Body is optional; an empty profile is a valid anonymous identity.
	_ = c.ShouldBindJSON(&req)

	user := &models.User{
		Nickname:  req.Nickname,
		Age:       req.Age,
		Gender:    req.Gender,
		Interests: pq.StringArray(req.Interests),
	}
	if err := h.Storage.CreateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	token, err := h.signToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}
	if err := h.Storage.StoreAccessToken(token, user.ID, tokenTTL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.ID})
}

func (h *Handler) signToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"jti":     uuid.NewString(),
		"exp":     time.Now().Add(tokenTTL).Unix(),
		"iss":     tokenIss,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// authenticate verifies a bearer token end to end: JWT signature and
// claims, then presence in Redis (revocation check). Returns the user ID.
func (h *Handler) authenticate(tokenString string) (int64, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.JWTSecret, nil
	}, jwt.WithIssuer(tokenIss), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}
	rawID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}

	userID, err := h.Storage.ResolveAccessToken(tokenString)
	if err != nil {
		return 0, err
	}
	if userID != int64(rawID) {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return userID, nil
}

// RequireAuth is the gin middleware guarding the REST surface.
func (h *Handler) RequireAuth(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token missing"})
		return
	}
	userID, err := h.authenticate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// bearerToken pulls the token from the Authorization header, falling back
// to the token query parameter for websocket clients that cannot set
// headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}
