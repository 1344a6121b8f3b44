package cli

import (
	"bufio"
	"context"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/mediavault/internal/client/api"
	"github.com/dmitrijs2005/mediavault/internal/client/config"
	"github.com/dmitrijs2005/mediavault/internal/client/repositories/assetcache"
	"github.com/dmitrijs2005/mediavault/internal/client/services"

	_ "modernc.org/sqlite"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config       *config.Config
	api          *api.Client
	assetService *services.AssetService
	accessToken  string
	Mode         Mode
	reader       *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	db, err := assetcache.InitDatabase(ctx, c.CacheDSN)
	if err != nil {
		log.Printf("error initializing cache database: %s", err.Error())
		return nil, err
	}

	apiClient := api.NewClient(c.ServerEndpointAddr)
	cache := assetcache.NewSQLiteRepository(db)

	as := services.NewAssetService(apiClient, cache)

	app := &App{
		config:       c,
		api:          apiClient,
		assetService: as,
		reader:       bufio.NewReader(os.Stdin),
	}

	if c.AccessToken != "" {
		app.setToken(c.AccessToken)
	}

	return app, nil
}

func (a *App) setToken(token string) {
	a.accessToken = token
	a.api.SetAccessToken(token)
}

func (app *App) setMode(mode Mode) {
	if app.Mode != mode {
		app.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

func (a *App) Run(ctx context.Context) {
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.accessToken != ""
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(ctx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}
