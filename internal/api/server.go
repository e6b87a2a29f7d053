package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"getweather/config"
	"getweather/internal/briefing"
	"getweather/internal/weather"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router   *gin.Engine
	server   *http.Server
	runner   *briefing.Runner
	defaults config.WeatherConfig
	port     int
}

type ServerConfig struct {
	Port     int
	Runner   *briefing.Runner
	Defaults config.WeatherConfig
}

func NewServer(cfg ServerConfig) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:   router,
		runner:   cfg.Runner,
		defaults: cfg.Defaults,
		port:     cfg.Port,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	api := s.router.Group("/api/v1")
	{
		api.GET("/briefing", s.briefingHandler)
		api.GET("/locate", s.locateHandler)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("API server starting on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func (s *Server) briefingHandler(c *gin.Context) {
	req, ok := s.request(c)
	if !ok {
		return
	}

	b, err := s.runner.Brief(c.Request.Context(), req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) locateHandler(c *gin.Context) {
	req, ok := s.request(c)
	if !ok {
		return
	}

	coord, err := s.runner.Locate(c.Request.Context(), req.Location)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"location": req.Location,
		"lat":      coord.Latitude,
		"lon":      coord.Longitude,
	})
}

func (s *Server) request(c *gin.Context) (briefing.Request, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'days' value"})
		return briefing.Request{}, false
	}

	units, unitsSet := c.GetQuery("units")
	req, err := briefing.NewRequest(briefing.Options{
		Zip:      c.Query("zip"),
		City:     c.Query("city"),
		State:    c.Query("state"),
		Units:    units,
		UnitsSet: unitsSet && units != "",
		Days:     days,
	}, s.defaults)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return briefing.Request{}, false
	}
	return req, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, weather.ErrMissingLocation), errors.Is(err, briefing.ErrInvalidDays):
		return http.StatusBadRequest
	case errors.Is(err, weather.ErrGeoLookupFailed), errors.Is(err, weather.ErrForecastFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
