package api

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"thefinder/server/config"
	"thefinder/server/internal/auth"
	"thefinder/server/internal/database"
	"thefinder/server/internal/filter"
	"thefinder/server/internal/session"
	"thefinder/server/internal/telegram"
)

// Handler serves the HTTP API.
type Handler struct {
	db       *database.Database
	logger   *logrus.Logger
	config   *config.Config
	catalog  *config.Catalog
	telegram *telegram.Service
	auth     *auth.Manager
	sessions session.Store
	share    *sharePage
}

// Options are the collaborators of a Handler.
type Options struct {
	Config   *config.Config
	Catalog  *config.Catalog
	Telegram *telegram.Service
	Auth     *auth.Manager
	Sessions session.Store
}

func NewHandler(db *database.Database, opts Options, logger *logrus.Logger) (*Handler, error) {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.Config == nil {
		return nil, errors.New("api: config is required")
	}

	share, err := newSharePage(opts.Config.IndexHTMLPath, opts.Config.PublicURL)
	if err != nil {
		return nil, err
	}

	return &Handler{
		db:       db,
		logger:   logger,
		config:   opts.Config,
		catalog:  opts.Catalog,
		telegram: opts.Telegram,
		auth:     opts.Auth,
		sessions: opts.Sessions,
		share:    share,
	}, nil
}

// bindFilters reads an optional JSON filter payload. An empty body is the
// default filter state.
func bindFilters(c *gin.Context, payload interface{}) error {
	if err := c.ShouldBindJSON(payload); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, message string, details interface{}) {
	body := gin.H{"error": message}
	if details != nil {
		body["details"] = details
	}
	c.JSON(http.StatusBadRequest, body)
}

// selectionDetails turns a filter validation error into a field keyed map.
func selectionDetails(err error) interface{} {
	var selErr *filter.SelectionError
	if errors.As(err, &selErr) {
		return gin.H{string(selErr.Field): selErr.Message}
	}
	return err.Error()
}
