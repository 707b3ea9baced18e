package setup

import (
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/itchan-dev/postfeed/frontend/internal/apiclient"
	"github.com/itchan-dev/postfeed/frontend/internal/blobstore"
	"github.com/itchan-dev/postfeed/frontend/internal/feed"
	"github.com/itchan-dev/postfeed/frontend/internal/handler"
	"github.com/itchan-dev/postfeed/frontend/internal/views"
	"github.com/itchan-dev/postfeed/shared/config"
	"github.com/itchan-dev/postfeed/shared/jwt"
	"github.com/itchan-dev/postfeed/shared/logger"
	"github.com/itchan-dev/postfeed/shared/middleware"
)

const (
	baseTemplate           = "base.html"
	partialsTemplate       = "partials.html"
	templateReloadInterval = 5 * time.Second
)

type Dependencies struct {
	Handler        *handler.Handler
	AuthMiddleware *middleware.Auth
	Views          *views.Registry
	Public         config.Public
}

func SetupDependencies(cfg *config.Config, tmplPath string) (*Dependencies, error) {
	templates, err := loadTemplates(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	client := apiclient.New(cfg.Public.ApiBaseURL,
		apiclient.WithTimeout(cfg.Public.RequestTimeout),
		apiclient.WithPreviewRate(cfg.Public.PreviewRatePerSecond, cfg.Public.PreviewBurst),
	)
	blobs := blobstore.New()
	resolver := feed.NewResolver(client, client)

	registry := views.New(cfg.Public.MaxViews, cfg.Public.ViewTTL, func() *feed.Assembler {
		return feed.NewAssembler(client, resolver, blobs, cfg.Public.MaxConcurrentResolutions)
	})

	h := handler.New(templates, cfg.Public, registry, blobs)
	startTemplateReloader(h, tmplPath)

	jwtSvc := jwt.New(cfg.JwtKey(), 0)

	logger.Log.Info("dependencies ready",
		"component", "setup",
		"api_base_url", cfg.Public.ApiBaseURL,
		"page_size", cfg.Public.PageSize,
		"templates", len(templates))

	return &Dependencies{
		Handler:        h,
		AuthMiddleware: middleware.NewAuth(jwtSvc),
		Views:          registry,
		Public:         cfg.Public,
	}, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func dict(values ...any) (map[string]interface{}, error) {
	if len(values)%2 != 0 {
		return nil, fmt.Errorf("invalid dict call: number of arguments must be even")
	}
	m := make(map[string]any, len(values)/2)
	for i := 0; i < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict keys must be strings")
		}
		m[key] = values[i+1]
	}
	return m, nil
}

// loadTemplates parses every page template together with the base layout
// and the shared partials.
func loadTemplates(tmplPath string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template)
	files, err := os.ReadDir(tmplPath)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if filepath.Ext(f.Name()) != ".html" || f.Name() == baseTemplate || f.Name() == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(template.FuncMap{
			"dict":       dict,
			"formatTime": formatTime,
		}).ParseFiles(
			path.Join(tmplPath, baseTemplate),
			path.Join(tmplPath, f.Name()),
			path.Join(tmplPath, partialsTemplate),
		)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", f.Name(), err)
		}
		templates[f.Name()] = tmpl
	}
	return templates, nil
}

func startTemplateReloader(h *handler.Handler, tmplPath string) {
	if os.Getenv("ENV") == "development" {
		ticker := time.NewTicker(templateReloadInterval)
		go func() {
			for range ticker.C {
				templates, err := loadTemplates(tmplPath)
				if err != nil {
					logger.Log.Error("template reload failed", "component", "setup", "error", err)
					continue
				}
				h.SetTemplates(templates)
			}
		}()
	}
}
