// Package api carries the conventional HTTP surface around the realtime
// core: auth, chat and message history endpoints, presence listing and
// health.
package api

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	midsec "chathub/middleware/security"
	chatmodel "chathub/module/chat/model"
	chatsvc "chathub/module/chat/service"
	msgsvc "chathub/module/message/service"
	usersvc "chathub/module/user/service"
	"chathub/service/realtime"
	"chathub/service/storage"
	"chathub/tools/errs"
	"chathub/tools/security"
)

type API struct {
	auth     *usersvc.AuthService
	chats    *chatsvc.Store
	messages *msgsvc.Store
	presence *realtime.PresenceTracker
	mirror   *storage.PresenceMirror
	mongo    *mongo.Client
}

func New(
	auth *usersvc.AuthService,
	chats *chatsvc.Store,
	messages *msgsvc.Store,
	presence *realtime.PresenceTracker,
	mirror *storage.PresenceMirror,
	mongoClient *mongo.Client,
) *API {
	return &API{
		auth:     auth,
		chats:    chats,
		messages: messages,
		presence: presence,
		mirror:   mirror,
		mongo:    mongoClient,
	}
}

// RegisterRoutes mounts everything on the engine. secOpts guards the
// authenticated group.
func (a *API) RegisterRoutes(r *gin.Engine, secOpts security.Options) {
	r.GET("/healthz", a.healthz)
	r.POST("/api/auth/register", a.register)
	r.POST("/api/auth/login", a.login)

	authed := r.Group("/api", midsec.Middleware(secOpts))
	authed.GET("/chats", a.listChats)
	authed.POST("/chats", a.createChat)
	authed.GET("/chats/:id/messages", a.listMessages)
	authed.GET("/presence/online", a.listOnline)
}

func fail(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{"error": errs.MsgOf(err)})
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
}

func (a *API) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	res, err := a.auth.Register(c.Request.Context(), usersvc.CreateUserInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (a *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	res, err := a.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type createChatRequest struct {
	Name        string   `json:"name" binding:"required"`
	Type        string   `json:"type" binding:"required,oneof=direct group"`
	Description string   `json:"description"`
	MemberIDs   []string `json:"memberIds" binding:"required,min=1"`
}

func (a *API) createChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	chat, err := a.chats.CreateChat(c.Request.Context(), midsec.UserID(c), chatsvc.CreateChatInput{
		Name:        req.Name,
		Type:        chatmodel.ChatType(req.Type),
		Description: req.Description,
		MemberIDs:   req.MemberIDs,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat.DTO())
}

func (a *API) listChats(c *gin.Context) {
	chats, err := a.chats.GetUserChats(c.Request.Context(), midsec.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]chatmodel.ChatDTO, 0, len(chats))
	for _, chat := range chats {
		out = append(out, chat.DTO())
	}
	c.JSON(http.StatusOK, out)
}

type listMessagesQuery struct {
	Limit  int64 `form:"limit,default=50"`
	Offset int64 `form:"offset,default=0"`
}

func (a *API) listMessages(c *gin.Context) {
	var q listMessagesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	msgs, err := a.messages.ListChatMessages(c.Request.Context(), c.Param("id"), midsec.UserID(c), q.Limit, q.Offset)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]any, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.DTO())
	}
	c.JSON(http.StatusOK, out)
}

// listOnline prefers the Redis mirror so the answer reflects writes from
// any node; the in-memory tracker covers a missing or unhealthy mirror.
func (a *API) listOnline(c *gin.Context) {
	if a.mirror != nil {
		if online, err := a.mirror.ListOnline(c.Request.Context()); err == nil {
			sort.Strings(online)
			c.JSON(http.StatusOK, gin.H{"online": online})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"online": a.presence.ListOnline()})
}

func (a *API) healthz(c *gin.Context) {
	if err := a.mongo.Ping(c.Request.Context(), readpref.Primary()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mongo": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
