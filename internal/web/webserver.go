// Package web provides the HTTP server for rootredirect.
//
// The server has a single application route: a request for "/" is
// answered with a redirect to the index file below the static URL path.
// Everything else (request parsing, file serving, the accept loop) is
// done by gin and net/http.
//
//	webserver_core_routes.go - server setup, middleware and routes
//	web_indexPage.go         - the root redirect and URL building
//	embedded_static.go       - static file handler and embedded fallback
package web
