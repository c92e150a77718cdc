package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"

	"LIFT-backend/internal/clients"
	"LIFT-backend/internal/platform/auth"
	"LIFT-backend/internal/platform/db"
	"LIFT-backend/internal/reports"
	"LIFT-backend/internal/technicians"
	"LIFT-backend/internal/timetracking"
)

func main() {
	// 設定読み込み
	cfg, err := db.LoadConfig("config/config.yaml")
	if err != nil {
		panic(err)
	}

	mode := cfg.Mode
	log.Printf("[INFO] mode:%s\n", mode)

	if cfg.Mode != "dev" && cfg.Mode != "release" {
		fmt.Println("Usage: go run main.go [dev|release]")
		return
	}
	if cfg.JWTSecret == "" {
		log.Fatal("[ERROR] jwt_secret is not set in config")
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	log.Printf("[INFO] connected to DB: %s", cfg.DB.DBName)
	log.Printf("[INFO] session timezone: %s", cfg.Timezone)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	_ = r.SetTrustedProxies(nil)

	if mode == "dev" {
		// CORS（開発中のみ必要）
		r.Use(cors.New(cors.Config{
			AllowOrigins:     []string{"http://localhost:3000"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	authSvc := auth.NewService(conn, []byte(cfg.JWTSecret))
	ttSvc := timetracking.NewService(conn, cfg.Location())
	reportSvc := reports.NewService(conn, ttSvc)

	// /api/v1
	api := r.Group("/api/v1")
	auth.RegisterPublicRoutes(api, authSvc)

	// 要ログイン
	authed := api.Group("", auth.RequireAuth([]byte(cfg.JWTSecret)))
	auth.RegisterSelfRoutes(authed, authSvc)
	timetracking.RegisterRoutes(authed, ttSvc)
	clients.RegisterRoutes(authed, clients.NewService(conn))
	reports.RegisterRoutes(authed, reportSvc)

	// admin専用
	admin := authed.Group("", auth.RequireRole(auth.RoleAdmin))
	auth.RegisterAdminRoutes(admin, authSvc)
	technicians.RegisterRoutes(admin, technicians.NewService(conn))
	timetracking.RegisterAdminRoutes(admin, ttSvc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	var certFile, keyFile string

	// TLS設定
	if mode == "dev" {
		//開発用
		certFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Cert)
		keyFile = fmt.Sprintf("config/tls/dev/%s", cfg.Certificate.Key)
	} else {
		//本番用
		certFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Cert)
		keyFile = fmt.Sprintf("config/tls/release/%s", cfg.Certificate.Key)
	}

	go func() {
		log.Printf("[INFO] listening on https://0.0.0.0%s", cfg.Addr)
		if err := srv.ListenAndServeTLS(certFile, keyFile); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	log.Println("[INFO] shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
