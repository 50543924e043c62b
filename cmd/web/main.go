// rootredirect web server: "/" redirects to the static index.html
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/gin-gonic/gin"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/rootredirect/internal/config"
	"github.com/go-while/rootredirect/internal/web"
)

var (
	// command-line flags
	configFile    string
	webhost       string
	webport       int
	staticDir     string
	staticURLPath string
	indexFile     string
	scriptRoot    string
	trustProxy    bool
	debug         bool
	pprofAddr     string
	showVersion   bool
)

var appVersion = "-unset-"

var Prof *prof.Profiler

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", "", "JSON config file (default: built-in defaults)")
	flag.StringVar(&webhost, "webhost", "", "Web server listen host (default: 127.0.0.1)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 5000)")
	flag.StringVar(&staticDir, "staticdir", "", "Directory with static files (default: ./static, embedded files if missing)")
	flag.StringVar(&staticURLPath, "staticurlpath", "", "URL path the static directory is served under (default: /static)")
	flag.StringVar(&indexFile, "index", "", "File in the static directory that / redirects to (default: index.html)")
	flag.StringVar(&scriptRoot, "scriptroot", "", "URL prefix the server is mounted under behind a proxy (default: none)")
	flag.BoolVar(&trustProxy, "trustproxy", false, "Honour X-Forwarded-For/-Prefix from 127.0.0.1, ::1 and RFC1918 addresses (default: false)")
	flag.BoolVar(&debug, "debug", false, "Run gin in debug mode and log every redirect (default: false)")
	flag.StringVar(&pprofAddr, "pprof", "", "Start the pprof web endpoint on this address, e.g. 127.0.0.1:51111 (default: off)")
	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("rootredirect %s\n", appVersion)
		fmt.Printf("Go version: %s\n", runtime.Version())
		fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	}

	log.Printf("Starting rootredirect web server (version: %s)", appVersion)

	mainConfig, err := config.LoadConfigFile(configFile)
	if err != nil {
		log.Fatalf("[WEB]: Failed to load configuration: %v", err)
	}
	webConfig := mainConfig.Web
	if err := webConfig.ApplyEnv(); err != nil {
		log.Fatalf("[WEB]: %v", err)
	}

	// Override config with command-line flags if provided
	if webhost != "" {
		webConfig.ListenHost = webhost
		log.Printf("[WEB]: Overriding listen host with command-line flag: %s", webConfig.ListenHost)
	}
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if staticDir != "" {
		webConfig.StaticDir = staticDir
		log.Printf("[WEB]: Static dir set: %s", webConfig.StaticDir)
	}
	if staticURLPath != "" {
		webConfig.StaticURLPath = staticURLPath
		log.Printf("[WEB]: Static URL path set: %s", webConfig.StaticURLPath)
	}
	if indexFile != "" {
		webConfig.IndexFile = indexFile
		log.Printf("[WEB]: Index file set: %s", webConfig.IndexFile)
	}
	if scriptRoot != "" {
		webConfig.ScriptRoot = scriptRoot
		log.Printf("[WEB]: Script root set: %s", webConfig.ScriptRoot)
	}
	if trustProxy {
		webConfig.TrustProxyHeaders = true
		log.Printf("[WEB]: Trusting proxy headers from 127.0.0.1, ::1 and RFC1918 addresses")
	}
	if debug {
		webConfig.Debug = true
	}

	if err := webConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: %v", err)
	}
	log.Printf("[WEB]: Using WEB configuration: %#v", *webConfig)

	if webConfig.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(pprofAddr)
		log.Printf("[WEB]: pprof web endpoint on http://%s/debug/pprof/", pprofAddr)
	}

	server := web.NewServer(webConfig)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			webServerErrChan <- err
		}
	}()

	log.Printf("[WEB]: Redirecting http://%s/ to %s", webConfig.Addr(), server.StaticURL(webConfig.ScriptRoot, webConfig.IndexFile))
	log.Printf("[WEB]: Press Ctrl+C to gracefully shutdown...")

	select {
	case <-sigChan:
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Fatalf("[WEB]: Failed to start web server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), webConfig.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("[WEB]: Server forced to shutdown: %v", err)
	}

	log.Printf("[WEB]: Graceful shutdown completed")
} // end main
