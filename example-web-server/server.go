// Package main demonstrates a confidential web application using the
// authorization-code grant: a login redirect, the callback exchange, stored
// session tokens, and authorized calls to a protected resource with
// transparent refresh.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/appleboy/graceful"
	ginslog "github.com/gin-contrib/slog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/go-training/oauth2-client/pkg/client"
	"github.com/go-training/oauth2-client/pkg/core"
	"github.com/go-training/oauth2-client/pkg/logger"
	"github.com/go-training/oauth2-client/pkg/store"
)

const (
	stateCookie   = "oauth_state"
	sessionCookie = "session_id"
	cookieMaxAge  = 24 * 60 * 60
)

func main() {
	var addr string
	var clientID string
	var clientSecret string
	var site string
	var redirectURI string
	var scope string
	var tokenScheme string
	var referer string
	var resourceURL string
	var logLevel string
	var storeType string
	var redisAddr string
	var redisPassword string
	var redisDB int
	flag.StringVar(&addr, "addr", ":8080", "address to listen on")
	flag.StringVar(&clientID, "client_id", "", "OAuth 2.0 Client ID")
	flag.StringVar(&clientSecret, "client_secret", "", "OAuth 2.0 Client Secret")
	flag.StringVar(&site, "site", "", "authorization server base URL")
	flag.StringVar(&redirectURI, "redirect_uri", "http://localhost:8080/oauth/callback", "redirect URI registered with the authorization server")
	flag.StringVar(&scope, "scope", "", "default scope requested on login")
	flag.StringVar(&tokenScheme, "token_scheme", "auth-header:Bearer", "token attachment scheme")
	flag.StringVar(&referer, "referer", "", "Referer header sent on resource requests")
	flag.StringVar(&resourceURL, "resource", "https://httpbin.org/anything", "protected resource URL to proxy on /api/profile")
	flag.StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR). Defaults to DEBUG in development, INFO in production")
	flag.StringVar(&storeType, "store", "memory", "Store type: memory or redis")
	flag.StringVar(&redisAddr, "redis-addr", "localhost:6379", "Redis address (only used when store=redis)")
	flag.StringVar(&redisPassword, "redis-password", "", "Redis password (only used when store=redis)")
	flag.IntVar(&redisDB, "redis-db", 0, "Redis database (only used when store=redis)")
	flag.Parse()

	logger.NewWithLevel(logLevel)

	if clientID == "" || clientSecret == "" || site == "" {
		slog.Error("client_id, client_secret, and site must be provided")
		os.Exit(1)
	}

	scheme, err := client.ParseScheme(tokenScheme)
	if err != nil {
		slog.Error("Invalid token scheme", "scheme", tokenScheme, "error", err)
		os.Exit(1)
	}

	// Initialize store using factory pattern
	tokenStore, err := store.NewStoreFromType(storeType, store.RedisOptions{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
	if err != nil {
		slog.Error("Failed to create store", "type", storeType, "error", err)
		os.Exit(1)
	}
	switch store.ParseStoreType(storeType) {
	case store.StoreTypeMemory:
		slog.Info("Using in-memory store")
	case store.StoreTypeRedis:
		slog.Info("Using Redis store", "addr", redisAddr, "db", redisDB)
	}

	sessions := newSessionRegistry()

	// The auto-save hook runs on every grant and refresh. Tokens refreshed
	// mid-request are persisted here without the handler's involvement; the
	// initial grant is saved by the callback handler, which also registers
	// the session.
	profile := &client.Profile{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Site:         site,
		RedirectURI:  redirectURI,
		Scope:        scope,
		Referer:      referer,
		TokenScheme:  scheme,
		AutoSave: func(p *client.Profile, t *client.Token) error {
			sessionID, ok := sessions.sessionOf(t)
			if !ok {
				return nil
			}
			return tokenStore.SaveToken(context.Background(), sessionID, t)
		},
	}

	oc, err := client.New(profile)
	if err != nil {
		slog.Error("Failed to create OAuth client", "error", err)
		os.Exit(1)
	}

	router := gin.New()
	router.Use(ginslog.SetLogger())
	router.Use(gin.Recovery())
	router.Use(requestContext(tokenStore))

	router.GET("/login", handleLogin(oc))
	router.GET("/oauth/callback", handleCallback(oc, sessions))
	router.GET("/api/profile", handleProfile(oc, sessions, resourceURL))
	router.POST("/logout", handleLogout(sessions))

	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	m := graceful.NewManager()
	m.AddRunningJob(func(ctx context.Context) error {
		slog.Info("Web server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	m.AddShutdownJob(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return err
		}
		if redisStore, ok := tokenStore.(*store.RedisStore); ok {
			redisStore.Close()
		}
		slog.Info("Server shutdown gracefully")
		return nil
	})
	<-m.Done()
}

// requestContext injects the request ID, session ID, and token store into
// the request context for downstream handlers.
func requestContext(tokenStore store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := core.WithRequestID(c.Request.Context())
		ctx = core.WithStore(ctx, tokenStore)
		if sessionID, err := c.Cookie(sessionCookie); err == nil && sessionID != "" {
			ctx = core.WithSessionID(ctx, sessionID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// handleLogin starts the grant: a fresh state parameter is stored in a
// cookie for callback correlation and the resource owner is redirected to
// the authorization endpoint.
func handleLogin(oc *client.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := uuid.New().String()
		c.SetCookie(stateCookie, state, 600, "/", "", false, true)

		if err := oc.RedirectToAuthorize(c.Writer, client.WithState(state)); err != nil {
			core.LoggerFromCtx(c.Request.Context()).Error("Failed to build authorize redirect", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cannot build authorization redirect"})
			return
		}
	}
}

// handleCallback finishes the grant: the state is correlated, the code is
// exchanged, and the granted token becomes a stored session.
func handleCallback(oc *client.Client, sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := core.LoggerFromCtx(ctx)

		if errCode := c.Query("error"); errCode != "" {
			log.Warn("Authorization denied", "error", errCode, "error_description", c.Query("error_description"))
			c.JSON(http.StatusForbidden, gin.H{"error": errCode})
			return
		}

		wantState, err := c.Cookie(stateCookie)
		if err != nil || wantState == "" || c.Query("state") != wantState {
			log.Warn("State mismatch on callback")
			c.JSON(http.StatusBadRequest, gin.H{"error": "state mismatch"})
			return
		}
		c.SetCookie(stateCookie, "", -1, "/", "", false, true)

		token, err := oc.ExchangeCode(ctx, c.Query("code"))
		if err != nil {
			var saveErr *client.AutoSaveError
			if !errors.As(err, &saveErr) {
				log.Error("Code exchange failed", "error", err)
				c.JSON(http.StatusBadGateway, gin.H{"error": "token exchange failed"})
				return
			}
			// The grant itself succeeded; persistence is retried below.
			log.Warn("Auto-save failed on grant", "error", saveErr)
		}

		sessionID := uuid.New().String()
		sessions.add(sessionID, token)

		tokenStore, err := core.StoreFromContext(ctx)
		if err != nil {
			log.Error("Missing store from context", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "missing store"})
			return
		}
		if err := tokenStore.SaveToken(ctx, sessionID, token); err != nil {
			log.Error("Failed to persist session token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot persist session"})
			return
		}

		c.SetCookie(sessionCookie, sessionID, cookieMaxAge, "/", "", false, true)
		log.Info("Session established", "can_refresh", token.CanRefresh())
		c.JSON(http.StatusOK, gin.H{"status": "authorized"})
	}
}

// handleProfile proxies an authorized request to the protected resource.
// Expired or rejected tokens are refreshed by the client transparently.
func handleProfile(oc *client.Client, sessions *sessionRegistry, resourceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := core.LoggerFromCtx(ctx)

		token, ok := loadSessionToken(c, sessions)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot build resource request"})
			return
		}

		resp, err := oc.Do(ctx, req, token)
		if err != nil {
			var confErr *client.ConfigurationError
			if errors.As(err, &confErr) {
				// No refresh token left: the session must restart the flow.
				log.Info("Session token cannot refresh, re-authorization required")
				c.JSON(http.StatusUnauthorized, gin.H{"error": "re-authorization required"})
				return
			}
			log.Error("Resource request failed", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "resource unavailable"})
			return
		}
		defer resp.Body.Close()

		c.Status(resp.StatusCode)
		c.Header("Content-Type", resp.Header.Get("Content-Type"))
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			log.Error("Failed to stream resource response", "error", err)
		}
	}
}

// handleLogout ends the session and removes its token from the store.
func handleLogout(sessions *sessionRegistry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := core.LoggerFromCtx(ctx)

		sessionID, err := core.SessionIDFromContext(ctx)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}

		sessions.remove(sessionID)
		tokenStore, err := core.StoreFromContext(ctx)
		if err == nil {
			if err := tokenStore.DeleteToken(ctx, sessionID); err != nil && !errors.Is(err, store.ErrTokenNotFound) {
				log.Error("Failed to delete session token", "error", err)
			}
		}
		c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"status": "logged out"})
	}
}

// loadSessionToken resolves the live token for the request's session,
// falling back to the durable store after a restart.
func loadSessionToken(c *gin.Context, sessions *sessionRegistry) (*client.Token, bool) {
	ctx := c.Request.Context()
	sessionID, err := core.SessionIDFromContext(ctx)
	if err != nil {
		return nil, false
	}
	if token, ok := sessions.get(sessionID); ok {
		return token, true
	}
	tokenStore, err := core.StoreFromContext(ctx)
	if err != nil {
		return nil, false
	}
	token, err := tokenStore.GetToken(ctx, sessionID)
	if err != nil {
		return nil, false
	}
	sessions.add(sessionID, token)
	return token, true
}
