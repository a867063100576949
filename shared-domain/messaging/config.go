package messaging

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// RabbitMQConfig describes the broker holding the checkout event exchange.
// URL, when set, wins over the individual connection fields.
type RabbitMQConfig struct {
	URL               string
	Host              string
	Port              int
	Username          string
	Password          string
	VHost             string
	Exchange          string
	RetryCount        int
	RetryDelay        time.Duration
	ConnectionTimeout time.Duration
}

func NewRabbitMQConfig() *RabbitMQConfig {
	return &RabbitMQConfig{
		URL:               os.Getenv("RABBITMQ_URL"),
		Host:              getEnvOrDefault("RABBITMQ_HOST", "localhost"),
		Port:              getIntOrDefault("RABBITMQ_PORT", 5672),
		Username:          getEnvOrDefault("RABBITMQ_USERNAME", "guest"),
		Password:          getEnvOrDefault("RABBITMQ_PASSWORD", "guest"),
		VHost:             getEnvOrDefault("RABBITMQ_VHOST", "/"),
		Exchange:          getEnvOrDefault("RABBITMQ_EXCHANGE", "checkout.events"),
		RetryCount:        getIntOrDefault("RABBITMQ_RETRY_COUNT", 3),
		RetryDelay:        getDurationOrDefault("RABBITMQ_RETRY_DELAY", 5*time.Second),
		ConnectionTimeout: getDurationOrDefault("RABBITMQ_CONNECTION_TIMEOUT", 30*time.Second),
	}
}

// ConnectionURL returns the amqp URL to dial. Credentials are escaped, so
// passwords may contain reserved characters.
func (c *RabbitMQConfig) ConnectionURL() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host + ":" + strconv.Itoa(c.Port),
	}
	if c.VHost != "" && c.VHost != "/" {
		u.Path = "/" + strings.TrimPrefix(c.VHost, "/")
	} else {
		u.Path = "/"
	}
	return u.String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
