package main

import (
	"crypto/tls"
	"flag"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/example/star-crew/internal/config"
	"github.com/example/star-crew/internal/game"
	"github.com/example/star-crew/internal/server"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		errLog := zerolog.New(os.Stderr)
		errLog.Fatal().Err(err).Msg("invalid configuration")
	}

	var (
		httpPort  = flag.String("http-port", cfg.HTTPPort, "HTTP port")
		httpsPort = flag.String("https-port", cfg.HTTPSPort, "HTTPS port")
		certFile  = flag.String("cert", cfg.CertFile, "Path to certificate file")
		keyFile   = flag.String("key", cfg.KeyFile, "Path to private key file")
		tlsOnly   = flag.Bool("tls-only", cfg.TLSOnly, "Only serve HTTPS")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(level).With().Timestamp().Logger()

	gw := server.NewGateway(log, cfg.AllowedOrigins)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	engine := game.NewEngine(gw, rng, log)
	engine.TickInterval = cfg.TickInterval
	gw.Attach(engine)

	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if req.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/ping", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	}).Methods("GET")

	r.HandleFunc("/api/health", gw.HandleStatus).Methods("GET")
	r.HandleFunc("/ws", gw.HandleWS)

	if *certFile == "" || *keyFile == "" {
		if *tlsOnly {
			log.Fatal().Msg("tls-only mode requires cert and key paths")
		}
		log.Info().Str("port", *httpPort).Msg("star-crew server listening (HTTP)")
		if err := http.ListenAndServe(":"+*httpPort, r); err != nil {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
		return
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},
	}

	go func() {
		log.Info().Str("port", *httpsPort).Msg("star-crew server listening (HTTPS)")
		srv := &http.Server{
			Addr:      ":" + *httpsPort,
			Handler:   r,
			TLSConfig: tlsConfig,
		}
		if err := srv.ListenAndServeTLS(*certFile, *keyFile); err != nil {
			log.Fatal().Err(err).Msg("HTTPS server failed")
		}
	}()

	if *tlsOnly {
		select {}
	}

	log.Info().Str("port", *httpPort).Msg("star-crew server listening (HTTP)")
	if err := http.ListenAndServe(":"+*httpPort, r); err != nil {
		log.Fatal().Err(err).Msg("HTTP server failed")
	}
}
