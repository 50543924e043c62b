package web

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/rootredirect/internal/config"
)

// WebServer represents the web server
type WebServer struct {
	Router     *gin.Engine
	Config     *config.WebConfig
	httpServer *http.Server
}

// trustedProxies are the peers whose X-Forwarded-* headers count
var trustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// trustedNets is trustedProxies parsed for isTrustedPeer
var trustedNets = mustParseProxies(trustedProxies)

func mustParseProxies(proxies []string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(proxies))
	for _, p := range proxies {
		if !strings.Contains(p, "/") {
			if ip := net.ParseIP(p); ip != nil && ip.To4() != nil {
				p += "/32"
			} else {
				p += "/128"
			}
		}
		_, ipNet, err := net.ParseCIDR(p)
		if err != nil {
			panic(fmt.Sprintf("bad trusted proxy %q: %v", p, err))
		}
		nets = append(nets, ipNet)
	}
	return nets
}

// NewServer creates a new web server instance
func NewServer(webconfig *config.WebConfig) *WebServer {
	router := gin.New()
	router.HandleMethodNotAllowed = true

	server := &WebServer{
		Router: router,
		Config: webconfig,
	}

	router.Use(server.ApacheLogFormat(), gin.Recovery())

	if webconfig.TrustProxyHeaders {
		if err := router.SetTrustedProxies(trustedProxies); err != nil {
			log.Printf("[WEB]: Warning: Failed to set trusted proxies: %v", err)
		}
		router.Use(server.ForwardedPrefixMiddleware())
	} else if err := router.SetTrustedProxies(nil); err != nil {
		log.Printf("[WEB]: Warning: Failed to clear trusted proxies: %v", err)
	}

	// Configure security headers; TLS is terminated elsewhere
	router.Use(secure.New(secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	server.httpServer = &http.Server{
		Addr:              webconfig.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	static := StaticHandler(s.staticFS())
	s.Router.GET(s.Config.StaticURLPath+"/*filepath", static)
	s.Router.HEAD(s.Config.StaticURLPath+"/*filepath", static)

	s.Router.GET("/", s.indexRedirect)
	s.Router.HEAD("/", s.indexRedirect)
	s.Router.OPTIONS("/", s.indexOptions)
}

// Start listens on the configured address and serves until Shutdown
func (s *WebServer) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
// It returns http.ErrServerClosed after a graceful shutdown.
func (s *WebServer) Serve(ln net.Listener) error {
	log.Printf("[WEB]: Starting HTTP server on http://%s", ln.Addr())
	return s.httpServer.Serve(ln)
}

// Shutdown stops accepting connections and waits for active requests
func (s *WebServer) Shutdown(ctx context.Context) error {
	log.Printf("[WEB]: Shutting down HTTP server on %s", s.httpServer.Addr)
	return s.httpServer.Shutdown(ctx)
}

// ForwardedPrefixMiddleware takes the script root from X-Forwarded-Prefix
// when the direct peer is in trustedProxies.
func (s *WebServer) ForwardedPrefixMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if prefix := c.GetHeader("X-Forwarded-Prefix"); prefix != "" && isTrustedPeer(c.RemoteIP()) {
			if root := cleanScriptRoot(prefix); root != "" {
				c.Set(ctxScriptRoot, root)
			}
		}
		c.Next()
	}
}

// isTrustedPeer reports whether ip is in trustedProxies
func isTrustedPeer(ip string) bool {
	addr := net.ParseIP(ip)
	if addr == nil {
		return false
	}
	for _, n := range trustedNets {
		if n.Contains(addr) {
			return true
		}
	}
	return false
}

func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
