package landing

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chess-api/internal/shared/server/respond"
)

//go:embed assets
var assets embed.FS

const svgContentType = "image/svg+xml"

// Param documents one query parameter of the priced endpoint.
type Param struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Info is the JSON description served at / for non-browser clients.
type Info struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Endpoint    string  `json:"endpoint"`
	Price       string  `json:"price"`
	Network     string  `json:"network"`
	Params      []Param `json:"params"`
}

// DefaultParams describes the best-move query.
var DefaultParams = []Param{
	{Name: "fen", Required: true, Description: "Chess position in Forsyth-Edwards Notation"},
	{Name: "depth", Required: false, Description: "Search depth, 1-30 (default 10)"},
}

// Handler serves the landing page, static assets and the health check.
type Handler struct {
	info    Info
	page    []byte
	favicon []byte
	board   []byte
}

// NewHandler renders the landing page once and loads the embedded assets.
func NewHandler(info Info) (*Handler, error) {
	tmpl, err := template.ParseFS(assets, "assets/index.html")
	if err != nil {
		return nil, err
	}
	var page bytes.Buffer
	if err := tmpl.Execute(&page, info); err != nil {
		return nil, err
	}
	favicon, err := assets.ReadFile("assets/favicon.svg")
	if err != nil {
		return nil, err
	}
	board, err := assets.ReadFile("assets/board.svg")
	if err != nil {
		return nil, err
	}
	return &Handler{info: info, page: page.Bytes(), favicon: favicon, board: board}, nil
}

// RegisterRoutes attaches the unpriced routes.
func (h *Handler) RegisterRoutes(rg gin.IRoutes) {
	rg.GET("/", h.index)
	rg.GET("/favicon.ico", h.svg(h.favicon))
	rg.GET("/favicon.svg", h.svg(h.favicon))
	rg.GET("/images/board.svg", h.svg(h.board))
	rg.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
}

func (h *Handler) index(c *gin.Context) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		c.Data(http.StatusOK, "text/html; charset=utf-8", h.page)
		return
	}
	respond.OK(c, h.info)
}

func (h *Handler) svg(body []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=86400")
		c.Data(http.StatusOK, svgContentType, body)
	}
}
