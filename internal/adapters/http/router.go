package http

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/adapters/signal"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/orch"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/app/view"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/config"
	"github.com/KaseyPowers/Simple-Web-Game-sub000/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// UserHeader is set by the upstream auth proxy and wins over the session.
	UserHeader     = "X-User-ID"
	sessionName    = "SimpleWebGame"
	sessionUserKey = "uid"
)

// IdentityMiddleware resolves who is calling. Authentication itself happens
// upstream; without a header the session cookie carries a stable anonymous id.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := strings.TrimSpace(c.GetHeader(UserHeader)); raw != "" {
			user, err := domain.ParseUserID(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.Set(signal.UserIDKey, string(user))
			c.Next()
			return
		}

		sess := sessions.Default(c)
		uid, _ := sess.Get(sessionUserKey).(string)
		if uid == "" {
			uid = uuid.NewString()
			sess.Set(sessionUserKey, uid)
			if err := sess.Save(); err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(signal.UserIDKey, uid)
		c.Next()
	}
}

type Options struct {
	Signal signal.Options
}

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, opts Options) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rooms": len(o.Rooms())})
	})

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(IdentityMiddleware())

	if cfg.StaticPath != "" {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(cfg.StaticPath + "/index.html")
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	ctrl := signal.NewSignalWSController(o, opts.Signal)
	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		rooms := o.Rooms()
		slices.SortFunc(rooms, func(a, b app.RoomSummary) int { return strings.Compare(string(a.ID), string(b.ID)) })
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		room, err := o.Registry.Get(domain.RoomID(strings.ToUpper(c.Param("id"))))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, view.Project(room, view.Public()))
	})

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("user", c.GetString(signal.UserIDKey)).Msg("ws endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
