package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// jwtKey - ключ для подписи JWT токена
var jwtKey []byte

// tokenTTL — фиксированный срок жизни токена сотрудника.
const tokenTTL = 7 * 24 * time.Hour

func init() {
	// Получаем ключ из переменных окружения
	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		// В продакшене этот код должен выдавать ошибку или использовать защищенное хранилище секретов
		log.Println("Предупреждение: JWT_SECRET_KEY не установлен, используется стандартный ключ")
		jwtSecret = "временный_ключ_для_разработки_не_использовать_в_продакшене"
	}
	jwtKey = []byte(jwtSecret)
}

// AuthMiddleware проверяет JWT токен и авторизует запрос
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Получаем токен из заголовка
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			c.Abort()
			return
		}

		// Обрабатываем токен
		tokenString := strings.Replace(authHeader, "Bearer ", "", 1)
		claims, err := validateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный или устаревший токен"})
			c.Abort()
			return
		}

		// Устанавливаем данные сотрудника в контексте
		c.Set("role", claims.Role)

		c.Next()
	}
}

// StaffClaims определяет структуру данных токена
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken генерирует JWT токен сотрудника
func GenerateToken() (string, error) {
	expirationTime := time.Now().Add(tokenTTL)

	claims := &StaffClaims{
		Role: "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "deskchat-server",
		},
	}

	// Создаем токен с указанным методом подписи
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Подписываем токен нашим секретным ключом
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken проверяет и парсит JWT токен (экспортированная версия)
func ValidateToken(tokenString string) (*StaffClaims, error) {
	return validateToken(tokenString)
}

// validateToken проверяет и парсит JWT токен (приватная версия)
func validateToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем, что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", token.Header["alg"])
		}
		return jwtKey, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("недействительный токен")
	}

	claims, ok := token.Claims.(*StaffClaims)
	if !ok {
		return nil, errors.New("неверный формат токена")
	}

	return claims, nil
}

// Authenticate проверяет общий пароль сотрудников и выдает токен.
// Предпочтительно задавать bcrypt-хеш (STAFF_PASSWORD_HASH); открытый
// STAFF_PASSWORD сравнивается за постоянное время.
func Authenticate(password string) (string, error) {
	if hash := os.Getenv("STAFF_PASSWORD_HASH"); hash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
			return "", errors.New("неверный пароль")
		}
		return GenerateToken()
	}

	plain := os.Getenv("STAFF_PASSWORD")
	if plain == "" {
		return "", errors.New("пароль сотрудников не настроен")
	}
	if subtle.ConstantTimeCompare([]byte(plain), []byte(password)) != 1 {
		return "", errors.New("неверный пароль")
	}

	return GenerateToken()
}
