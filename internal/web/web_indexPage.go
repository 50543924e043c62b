package web

import (
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// allowedRootMethods is what "/" answers to, everything else gets 405
const allowedRootMethods = "GET, HEAD, OPTIONS"

// ctxScriptRoot holds a per-request script root set by ForwardedPrefixMiddleware
const ctxScriptRoot = "scriptRoot"

// indexRedirect sends the client to the index file in the static directory
func (s *WebServer) indexRedirect(c *gin.Context) {
	target := s.StaticURL(s.scriptRoot(c), s.Config.IndexFile)
	if s.Config.Debug {
		log.Printf("[WEB]: Redirecting %s %s to %s", c.Request.Method, c.Request.URL.Path, target)
	}
	c.Redirect(http.StatusFound, target)
}

// indexOptions answers OPTIONS on "/" with the methods the route accepts
func (s *WebServer) indexOptions(c *gin.Context) {
	c.Header("Allow", allowedRootMethods)
	c.Status(http.StatusOK)
}

// StaticURL builds the root-relative URL of a file below the static URL path,
// prefixed with scriptRoot. The filename is escaped as a path so "/" keeps
// separating directories.
func (s *WebServer) StaticURL(scriptRoot, filename string) string {
	u := url.URL{
		Path: scriptRoot + s.Config.StaticURLPath + "/" + strings.TrimLeft(filename, "/"),
	}
	return u.EscapedPath()
}

// scriptRoot returns the prefix for built URLs: a trusted X-Forwarded-Prefix
// if one came with the request, else the configured one.
func (s *WebServer) scriptRoot(c *gin.Context) string {
	if root := c.GetString(ctxScriptRoot); root != "" {
		return root
	}
	return s.Config.ScriptRoot
}

// cleanScriptRoot turns a proxy supplied prefix into "" or "/a/b".
// Cleaning collapses leading slashes so the prefix can never produce a
// protocol-relative "//host" redirect.
func cleanScriptRoot(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	cleaned := path.Clean("/" + prefix)
	if cleaned == "/" {
		return ""
	}
	return cleaned
}
