package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"line-bind-bot/bot"
	"line-bind-bot/internal/bind"
	"line-bind-bot/internal/config"
	"line-bind-bot/internal/database"
	"line-bind-bot/internal/directory"
	"line-bind-bot/internal/keycloak"
	lineclient "line-bind-bot/internal/line/client"
	"line-bind-bot/internal/logger"
	"line-bind-bot/internal/richmenu"
	"line-bind-bot/internal/swapi"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gopkg.in/fsnotify.v1"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	config.GetConfig(*configFile, cnf)
	cnf.RunInDebug = *debug

	logFile := logger.InitLogger(*debug, cnf.LogDir)
	if logFile != nil {
		defer logFile.Close()
	}
	logger.Info("Application starting...")

	if *debug {
		logger.Debug("Config:", cnf)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := database.Connect(cnf.DatabasePath)
	if err != nil {
		logger.Crit(err)
	}
	defer store.Close()

	cache := database.ConnectInMemoryCache()
	menus := richmenu.InitMenus(cnf.MenuConfig)

	line := lineclient.New(cnf.Line)
	kc := keycloak.New(cnf.Keycloak)
	lookup := swapi.New(cnf.Lookup)
	registry := richmenu.NewRegistry(line, menus, cnf.ImagesDir)

	// 選單解析一定要在接收流量前完成，Assign 才找得到 richMenuId
	if err := registry.ResolveAll(context.Background()); err != nil {
		logger.Crit("Rich menu setup failed:", err)
	}

	// LDAP 管理連線，失敗只記 log
	go directory.ConnectAdmin(cnf.Ldap)

	sessionStore := cookie.NewStore([]byte(cnf.Session.Secret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cnf.Session.MaxAge,
		Secure:   cnf.Session.Secure,
		HttpOnly: true,
	})

	app := gin.Default()
	app.Use(
		sessions.Sessions("bindsession", sessionStore),
		config.Inject("cnf", cnf),
		database.Inject("store", store),
		database.InjectInMemoryCache("cache", cache),
		lineclient.Inject("line", line),
		keycloak.Inject("kc", kc),
		swapi.Inject("lookup", lookup),
		richmenu.Inject("menus", registry),
	)

	bot.InitHooks(app, cnf)
	bind.InitRoutes(app, cnf)

	srv := &http.Server{
		Addr:    cnf.Server.Listen,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// 監控選單設定檔的變動
	if cnf.MenuConfig != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			logger.Crit(err)
		}
		defer watcher.Close()

		go func() {
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if event.Op&fsnotify.Write == fsnotify.Write {
						if err := menus.UpdateMenus(cnf.MenuConfig); err != nil {
							logger.Warning("不正確的選單設定!", err)
							continue
						}
						logger.Warning("選單設定已更新，richMenuId 對照表不變，版面改動需重啟套用!")
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Println("error:", err)
				}
			}
		}()

		if err := watcher.Add(cnf.MenuConfig); err != nil {
			logger.Warning("無法監控選單設定檔:", err)
		}
	}

	logger.Info("Application started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT)

	quit := make(chan int)

	go func() {
		for {
			sig := <-signals
			switch sig {
			case syscall.SIGHUP, syscall.SIGINT:
				logger.Info("Catch OS signal! Exiting...")

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					log.Fatal("App forced to shutdown:", err)
				}

				logger.Info("Application stopped correctly!")

				quit <- 0
			default:
				logger.Warning("Unknown signal")
			}
		}
	}()

	code := <-quit

	os.Exit(code)
}
