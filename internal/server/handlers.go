package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/uni-matcher/internal/catalog"
	"github.com/spigell/uni-matcher/internal/logger"
	"github.com/spigell/uni-matcher/internal/matcher"
	"github.com/spigell/uni-matcher/internal/profile"
)

var errNotJSON = errors.New("request body must be JSON")

type recommendRequest struct {
	profile.Input
	Limit *int `json:"limit"`
}

type recommendResponse struct {
	Success bool `json:"success"`
	*matcher.Recommendation
	UserProfile profile.StudentProfile `json:"user_profile"`
}

type statsResponse struct {
	Success bool `json:"success"`
	catalog.Stats
}

func failure(msg string) gin.H {
	return gin.H{"success": false, "error": msg}
}

func (s *Server) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "University Recommendation API",
		"version": s.version,
		"endpoints": gin.H{
			"/":                 "API information",
			"/api/universities": "Get all universities (supports filtering)",
			"/api/recommend":    "Get personalized recommendations (POST)",
			"/api/countries":    "Get list of all countries",
			"/api/stats":        "Get dataset statistics",
		},
	})
}

func (s *Server) universities(c *gin.Context) {
	q, err := parseQuery(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	found := s.matcher.GetAll(q)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"count":        len(found),
		"universities": found,
	})
}

func (s *Server) recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, bindError(err))
		return
	}

	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
	}
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			s.fail(c, &profile.ValidationError{Field: "limit", Reason: "must be an integer"})
			return
		}
		limit = n
	}

	p, err := req.Profile()
	if err != nil {
		s.fail(c, err)
		return
	}

	rec, err := s.matcher.Recommend(p, limit)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, recommendResponse{
		Success:        true,
		Recommendation: rec,
		UserProfile:    p,
	})
}

func (s *Server) countries(c *gin.Context) {
	countries := s.matcher.Countries()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"count":     len(countries),
		"countries": countries,
	})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{Success: true, Stats: s.matcher.Stats()})
}

// fail writes validation problems as 400 and everything else as 500.
func (s *Server) fail(c *gin.Context, err error) {
	var vErr *profile.ValidationError
	if errors.As(err, &vErr) || errors.Is(err, errNotJSON) {
		c.JSON(http.StatusBadRequest, failure(err.Error()))
		return
	}

	s.logger.Error("request failed",
		zap.Error(err),
		zap.String(logger.FieldRequestID, c.GetString(requestIDKey)),
	)
	c.JSON(http.StatusInternalServerError, failure("Internal server error"))
}

func parseQuery(c *gin.Context) (catalog.Query, error) {
	q := catalog.Query{Country: c.Query("country")}

	if raw := c.Query("max_tuition"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, &profile.ValidationError{Field: "max_tuition", Reason: "must be a number"}
		}
		q.MaxTuition = &v
	}

	for _, param := range []struct {
		name string
		dst  **int
	}{
		{name: "min_rank", dst: &q.MinRank},
		{name: "max_rank", dst: &q.MaxRank},
	} {
		raw := c.Query(param.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, &profile.ValidationError{Field: param.name, Reason: "must be an integer"}
		}
		*param.dst = &v
	}

	return q, nil
}

// bindError turns a JSON decoding failure into a caller facing error.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return errNotJSON
	}

	field := typeErr.Field
	switch {
	case field == "limit":
		return &profile.ValidationError{Field: field, Reason: "must be an integer"}
	case strings.HasPrefix(field, "preferred_"):
		return &profile.ValidationError{Field: field, Reason: "must be a list of strings"}
	default:
		return &profile.ValidationError{Field: field, Reason: profile.FieldReason(field)}
	}
}
