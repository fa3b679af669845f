// Package http exposes the REST API and the websocket relay over echo.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/mentor"
	"github.com/idfuturestars/StarGuideAI/internal/relay"
)

// Services are the use cases the API serves.
type Services struct {
	Accounts    *app.AccountService
	Questions   *app.QuestionService
	Assessments *app.AssessmentService
	Pods        *app.PodService
	Analytics   *app.AnalyticsService
	Challenges  *app.ChallengeService
	Tournaments *app.TournamentService
	Help        *app.HelpService
	Battles     *app.BattleService
	Mentor      *mentor.Mentor
}

type Server struct {
	echo     *echo.Echo
	svc      Services
	hub      *relay.Hub
	sessions *sessionManager
	log      logrus.FieldLogger
}

func NewServer(svc Services, hub *relay.Hub, sessionSecret string, log logrus.FieldLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// No write timeout: websocket connections outlive a single request.
	e.Server.ReadTimeout = 15 * time.Second

	v := newRequestValidator()
	e.Validator = v
	e.HTTPErrorHandler = newErrorHandler(v, log)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithFields(logrus.Fields{
				"method":  v.Method,
				"path":    v.URIPath,
				"status":  v.Status,
				"latency": v.Latency.String(),
			}).Debug("request")
			return nil
		},
	}))

	s := &Server{
		echo:     e,
		svc:      svc,
		hub:      hub,
		sessions: newSessionManager(sessionSecret),
		log:      log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := s.echo.Group("/api")
	api.POST("/demo-login", s.demoLogin)
	api.POST("/register", s.register)
	api.POST("/login", s.login)
	api.POST("/logout", s.logout)

	auth := s.sessions.requireUser(s.svc.Accounts)
	api.GET("/profile", s.profile, auth)
	api.POST("/questions", s.questions, auth)
	api.POST("/validate-answer", s.validateAnswer, auth)
	api.POST("/submit-assessment", s.submitAssessment, auth)
	api.GET("/achievements", s.achievements, auth)
	api.GET("/analytics", s.analytics, auth)
	api.GET("/pods", s.listPods, auth)
	api.POST("/pods", s.createPod, auth)
	api.POST("/ai-chat", s.aiChat, auth)
	api.GET("/daily-challenges", s.dailyChallenges, auth)
	api.GET("/tournaments", s.tournaments, auth)
	api.POST("/tournaments/:id/join", s.joinTournament, auth)
	api.POST("/help-requests", s.submitHelpRequest, auth)
	api.POST("/find-battle", s.findBattle, auth)

	ws := NewWSHandler(s.hub, s.svc.Pods, s.svc.Battles, s.log)
	s.echo.GET("/ws", ws.ServeWS, auth)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown. It returns nil after a clean shutdown.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
