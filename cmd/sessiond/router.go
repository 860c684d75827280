package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/app"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
	"github.com/MrEthical07/goSession/navigation"
	"github.com/gin-gonic/gin"
)

const loginHTML = `<!doctype html>
<title>Sign in</title>
{{if .Error}}<p role="alert">{{.Error}}</p>{{end}}
<form method="post" action="/login">
<input name="username" autocomplete="username">
<input name="password" type="password" autocomplete="current-password">
<button type="submit">Sign in</button>
</form>
`

const dashboardHTML = `<!doctype html>
<title>Dashboard</title>
<p>Signed in as {{.Username}} ({{.Role}})</p>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>
`

func loadPages() *template.Template {
	t := template.Must(template.New("login").Parse(loginHTML))
	template.Must(t.New("dashboard").Parse(dashboardHTML))
	return t
}

type loginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type sessionView struct {
	Authenticated bool       `json:"authenticated"`
	Version       uint64     `json:"version"`
	UserID        string     `json:"user_id,omitempty"`
	TenantID      string     `json:"tenant_id,omitempty"`
	Username      string     `json:"username,omitempty"`
	Role          string     `json:"role,omitempty"`
	SessionID     string     `json:"session_id,omitempty"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type viewResponse struct {
	Route   string      `json:"route"`
	Session sessionView `json:"session"`
}

// mount attaches the app scope (store and navigator) to every request.
func mount(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(a.Mount(c.Request.Context()))
		c.Next()
	}
}

// pinger reports backend reachability for /healthz.
type pinger func(context.Context) (time.Duration, error)

func newRouter(store *goSession.Store, ping pinger, extra ...func(*gin.Engine)) *gin.Engine {
	shell, err := app.New(store, navigation.NewRouter(navigation.Login))
	if err != nil {
		panic(err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.GinScope(store), mount(shell))
	r.SetHTMLTemplate(loadPages())

	r.GET("/healthz", func(c *gin.Context) {
		if ping == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		latency, err := ping(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis_latency_ms": latency.Milliseconds()})
	})
	r.GET(string(navigation.Login), loginPage)
	r.POST(string(navigation.Login), login)
	r.POST("/logout", logout)
	r.GET(string(navigation.Dashboard), middleware.GinRequireAuthenticated(string(navigation.Login)), dashboard)
	r.GET("/session", currentSession)
	r.GET("/view", func(c *gin.Context) {
		v, err := shell.Render(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, viewResponse{Route: string(v.Route), Session: viewOf(v.Session)})
	})
	r.GET("/metrics", gin.WrapH(prometheus.New(store).Handler()))

	for _, fn := range extra {
		fn(r)
	}
	return r
}

func loginPage(c *gin.Context) {
	store := goSession.MustStoreFromContext(c.Request.Context())
	if store.Current().Authenticated() {
		c.Redirect(http.StatusSeeOther, string(navigation.Dashboard))
		return
	}
	c.HTML(http.StatusOK, "login", gin.H{"Error": c.Query("error")})
}

func login(c *gin.Context) {
	ctx := c.Request.Context()
	wantsJSON := c.ContentType() == gin.MIMEJSON

	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		if wantsJSON {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
			return
		}
		c.HTML(http.StatusBadRequest, "login", gin.H{"Error": "Username and password are required."})
		return
	}

	store := goSession.MustStoreFromContext(ctx)
	err := app.LoginPage{}.Activate(ctx, goSession.Credentials{Identifier: req.Username, Secret: req.Password})
	if err != nil {
		status, msg := loginFailure(err)
		if wantsJSON {
			c.JSON(status, gin.H{"error": msg})
			return
		}
		c.HTML(status, "login", gin.H{"Error": msg})
		return
	}

	if wantsJSON {
		c.JSON(http.StatusOK, viewOf(store.Current()))
		return
	}
	c.Redirect(http.StatusSeeOther, string(navigation.Dashboard))
}

func logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := (app.LogoutAction{}).Run(ctx); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if c.ContentType() == gin.MIMEJSON {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, string(navigation.Login))
}

func dashboard(c *gin.Context) {
	sess, _ := middleware.SessionFromContext(c.Request.Context())
	user, _ := sess.User()
	c.HTML(http.StatusOK, "dashboard", user)
}

func currentSession(c *gin.Context) {
	store := goSession.MustStoreFromContext(c.Request.Context())
	c.JSON(http.StatusOK, viewOf(store.Current()))
}

func viewOf(sess goSession.Session) sessionView {
	v := sessionView{Version: sess.Version}
	a, ok := sess.State.(goSession.Authenticated)
	if !ok {
		return v
	}
	v.Authenticated = true
	v.UserID = a.User.UserID
	v.TenantID = a.User.TenantID
	v.Username = a.User.Username
	v.Role = a.User.Role
	v.SessionID = a.SessionID
	issued := a.IssuedAt
	v.IssuedAt = &issued
	if !a.ExpiresAt.IsZero() {
		expires := a.ExpiresAt
		v.ExpiresAt = &expires
	}
	return v
}

// loginFailure maps a login error to a status code and a message safe to show.
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, goSession.ErrLoginRateLimited):
		return http.StatusTooManyRequests, "Too many failed attempts. Try again later."
	case errors.Is(err, goSession.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password."
	case errors.Is(err, goSession.ErrTimeout):
		return http.StatusGatewayTimeout, "The sign-in service timed out. Try again."
	case errors.Is(err, goSession.ErrNetworkUnavailable):
		return http.StatusServiceUnavailable, "The sign-in service is unavailable. Try again."
	case errors.Is(err, goSession.ErrStoreClosed):
		return http.StatusServiceUnavailable, "Shutting down."
	default:
		return http.StatusInternalServerError, "Sign-in failed. Try again."
	}
}
