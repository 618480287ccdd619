package server

import (
	stderrors "errors"
	"net/http"

	"github.com/duynguyendang/decviz/pkg/common/errors"
	"github.com/duynguyendang/decviz/pkg/service"
	"github.com/gin-gonic/gin"
)

// handleLogica compiles a program and returns the DOT text with the result tables.
func (s *Server) handleLogica(c *gin.Context) {
	var req service.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	withD3 := c.Query("format") == "d3"
	res, err := s.graphService.Compile(c.Request.Context(), req, withD3)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleDotToSVG renders DOT text with Graphviz.
func (s *Server) handleDotToSVG(c *gin.Context) {
	var req struct {
		Dot string `json:"dot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.Invalid("DOT string is required"))
		return
	}

	svg, err := s.graphService.Render(c.Request.Context(), req.Dot)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"svg": svg})
}

// handleShareSave stores an editor history and returns its id.
func (s *Server) handleShareSave(c *gin.Context) {
	if s.shares == nil {
		handleError(c, errors.Unavailable("Sharing is disabled"))
		return
	}

	payload, err := c.GetRawData()
	if err != nil {
		handleError(c, errors.Invalid("Invalid payload"))
		return
	}

	id, err := s.shares.Save(c.Request.Context(), payload)
	s.metrics.ObserveShare("save", err)
	if err != nil {
		if stderrors.Is(err, errors.ErrInvalidInput) {
			err = errors.NewAppError(http.StatusBadRequest, "Invalid payload", err)
		}
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// handleShareLoad returns a stored payload, by ?id= or path parameter.
func (s *Server) handleShareLoad(c *gin.Context) {
	if s.shares == nil {
		handleError(c, errors.Unavailable("Sharing is disabled"))
		return
	}

	id := c.Param("id")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		handleError(c, errors.Invalid("Missing id"))
		return
	}

	payload, err := s.shares.Load(c.Request.Context(), id)
	s.metrics.ObserveShare("load", err)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// handleExamples lists the example catalog.
func (s *Server) handleExamples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"examples": s.examples.All()})
}

// handleExample returns a single example.
func (s *Server) handleExample(c *gin.Context) {
	ex, ok := s.examples.Get(c.Param("id"))
	if !ok {
		handleError(c, errors.NotFound("Example not found", nil))
		return
	}
	c.JSON(http.StatusOK, ex)
}

// handleError writes err as {"error": message} with its mapped status.
func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
