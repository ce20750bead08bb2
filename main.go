package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"chathub/global/config"
	"chathub/logger"
	"chathub/middleware"
	chatsvc "chathub/module/chat/service"
	msgsvc "chathub/module/message/service"
	usersvc "chathub/module/user/service"
	"chathub/service/api"
	"chathub/service/bus"
	"chathub/service/mgo"
	"chathub/service/realtime"
	"chathub/service/storage"
	rds "chathub/service/storage/redis"
	"chathub/tools/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("load config: %v", err)
		return
	}

	ctx := context.Background()
	mongoClient, db, err := mgo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		logger.Errorf("connect mongo: %v", err)
		return
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	if err := rds.Init(rds.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}); err != nil {
		logger.Errorf("connect redis: %v", err)
		return
	}
	defer func() { _ = rds.Close() }()

	secOpts := security.DefaultOptions([]byte(cfg.JWTSecret))
	secOpts.TTL = cfg.JWTTTL

	events := bus.New()

	users := usersvc.NewStore(db)
	auth := usersvc.NewAuthService(users, secOpts)
	chats := chatsvc.NewStore(db, users, events)
	authority := chatsvc.NewAuthority(db, rds.Client(), cfg.MembershipCacheTTL)
	messages := msgsvc.NewStore(db, authority, users, events)

	registry := realtime.NewRegistry()
	presence := realtime.NewPresenceTracker()
	typing := realtime.NewTypingTracker()
	dispatcher := realtime.NewDispatcher(registry)
	dispatcher.Attach(events)

	mirror := storage.NewPresenceMirror(rds.Client())
	gateway := realtime.NewGateway(registry, presence, typing, dispatcher, messages, auth, realtime.Options{
		ReadLimit:     cfg.WSReadLimit,
		SendQueueSize: cfg.SendQueueSize,
		Mirror:        mirror,
	})

	r := gin.Default()
	r.Use(middleware.CORS())
	r.GET("/ws", gateway.HandleWS)
	api.New(auth, chats, messages, presence, mirror, mongoClient).RegisterRoutes(r, secOpts)

	logger.Infof("listening on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logger.Errorf("http server: %v", err)
	}
}
