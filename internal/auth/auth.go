package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User backs the development identity provider. Production deployments front
// an external provider that signs compatible tokens; the domain only ever
// sees the verified (id, email) pair from the claims.
type User struct {
	ID        string    `gorm:"primary_key;not null;unique" json:"id"`
	Email     string    `gorm:"not null;unique" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Handler struct {
	db     *gorm.DB
	jwtKey []byte
	logger *slog.Logger
}

type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewHandler(db *gorm.DB, jwtKey []byte, logger *slog.Logger) *Handler {
	return &Handler{
		db:     db,
		jwtKey: jwtKey,
		logger: logger,
	}
}

type Request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(ctx *gin.Context) {
	var req Request
	err := json.NewDecoder(ctx.Request.Body).Decode(&req)
	if err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	var user User
	err = h.db.Where("email = ?", req.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(
				http.StatusBadRequest,
				gin.H{"message": "User not found"},
			)
		} else {
			ctx.JSON(
				http.StatusInternalServerError,
				gin.H{"message": "Internal server error"},
			)
		}
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password))
	if err != nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Incorrect password"},
		)
		return
	}

	token, err := createToken(user.ID, user.Email, h.jwtKey)
	if err != nil {
		h.logger.Error("Failed to create token", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	ctx.JSON(
		http.StatusOK,
		gin.H{"token": token},
	)
}

func (h *Handler) Register(ctx *gin.Context) {
	var req Request
	err := json.NewDecoder(ctx.Request.Body).Decode(&req)
	if err != nil || req.Email == "" || req.Password == "" {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "Missing Request"},
		)
		return
	}

	var checkUser User
	err = h.db.Where("email = ?", req.Email).First(&checkUser).Error
	if err == nil {
		ctx.JSON(
			http.StatusBadRequest,
			gin.H{"message": "User already exists"},
		)
		return
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("Failed to hash password", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	newUser := User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	err = h.db.Create(&newUser).Error
	if err != nil {
		h.logger.Error("Failed to save user", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	token, err := createToken(newUser.ID, newUser.Email, h.jwtKey)
	if err != nil {
		h.logger.Error("Failed to generate access token", "error", err)
		ctx.JSON(
			http.StatusInternalServerError,
			gin.H{"message": "Server error"},
		)
		return
	}
	ctx.JSON(
		http.StatusOK,
		gin.H{"token": token},
	)
}

func createToken(id, email string, secretKey []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:    id,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24 * 7)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// SignToken issues a token for the given identity pair. Tests use this to
// act as the external identity provider.
func SignToken(id, email string, secretKey []byte) (string, error) {
	return createToken(id, email, secretKey)
}
