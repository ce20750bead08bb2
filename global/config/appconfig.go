package config

import "time"

// AppConfig carries every tunable the process reads at boot.
type AppConfig struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"chathub"`

	RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"dev-secret-change-me"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"2h"`

	// Realtime transport knobs.
	WSReadLimit   int64 `envconfig:"WS_READ_LIMIT" default:"1048576"`
	SendQueueSize int   `envconfig:"WS_SEND_QUEUE" default:"256"`

	// How long a membership verdict may be served from Redis before
	// going back to Mongo.
	MembershipCacheTTL time.Duration `envconfig:"MEMBERSHIP_CACHE_TTL" default:"30s"`
}
