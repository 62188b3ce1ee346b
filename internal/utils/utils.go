package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	"github.com/redis/go-redis/v9"
)

func RandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// NewRedisClient builds a client from REDIS_ADDR/REDIS_PW/REDIS_DB. The
// event feed degrades to single-instance fan-out when REDIS_ADDR is unset,
// so only the address is strictly required here.
func NewRedisClient() (*redis.Client, error) {
	Addr := os.Getenv("REDIS_ADDR")
	if Addr == "" {
		return nil, fmt.Errorf("REDIS_ADDR environment variable not set")
	}
	Password := os.Getenv("REDIS_PW")
	DB := 0
	if raw := os.Getenv("REDIS_DB"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("REDIS_DB environment variable is invalid")
		}
		DB = parsed
	}
	return redis.NewClient(
		&redis.Options{
			Addr:     Addr,
			Password: Password,
			DB:       DB,
		}), nil
}
