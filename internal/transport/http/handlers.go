package http

import (
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/idfuturestars/StarGuideAI/internal/app"
	"github.com/idfuturestars/StarGuideAI/internal/domain"
)

const chatEventPreview = 100

type registerRequest struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

type questionsRequest struct {
	Subject    string `json:"subject"`
	Difficulty int    `json:"difficulty" validate:"min=0,max=3"`
	Count      int    `json:"count" validate:"min=0"`
}

type validateAnswerRequest struct {
	QuestionID int64  `json:"questionId"`
	Answer     string `json:"answer"`
}

type createPodRequest struct {
	Name        string `json:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" validate:"max=500"`
	Subject     string `json:"subject"`
	MaxMembers  int    `json:"maxMembers" validate:"min=0,max=100"`
}

type helpRequest struct {
	Subject     string `json:"subject" validate:"required,notblank,max=200"`
	Category    string `json:"category" validate:"required,notblank,max=50"`
	Priority    string `json:"priority" validate:"required,oneof=low medium high"`
	Description string `json:"description" validate:"required,notblank,max=2000"`
}

type chatRequest struct {
	Message string `json:"message" validate:"required,notblank"`
	Context string `json:"context"`
}

type userResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

type profileResponse struct {
	Success bool `json:"success"`
	domain.ProfileView
}

type questionsResponse struct {
	Success   bool              `json:"success"`
	Questions []domain.Question `json:"questions"`
}

type verdictResponse struct {
	Success bool `json:"success"`
	domain.AnswerVerdict
}

type assessmentResponse struct {
	Success bool `json:"success"`
	domain.AssessmentResult
}

type achievementsResponse struct {
	Success      bool                       `json:"success"`
	Achievements []domain.AchievementStatus `json:"achievements"`
}

type analyticsResponse struct {
	Success   bool             `json:"success"`
	Analytics domain.Analytics `json:"analytics"`
}

type podsResponse struct {
	Success bool         `json:"success"`
	Pods    []domain.Pod `json:"pods"`
}

type podResponse struct {
	Success bool       `json:"success"`
	Pod     domain.Pod `json:"pod"`
}

type chatResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Source   string `json:"source"`
}

type challengesResponse struct {
	Success    bool                    `json:"success"`
	Challenges []domain.DailyChallenge `json:"challenges"`
}

type tournamentsResponse struct {
	Success     bool                `json:"success"`
	Tournaments []domain.Tournament `json:"tournaments"`
}

type helpResponse struct {
	Success  bool  `json:"success"`
	TicketID int64 `json:"ticketId"`
}

type battleResponse struct {
	Success bool `json:"success"`
	domain.Battle
}

type okResponse struct {
	Success bool `json:"success"`
}

// bind decodes and validates a request body. Malformed JSON is an invalid request.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.ErrInvalidRequest
	}
	return c.Validate(req)
}

func (s *Server) demoLogin(c echo.Context) error {
	user, err := s.svc.Accounts.DemoLogin(c.Request().Context())
	if err != nil {
		return err
	}
	if err := s.sessions.login(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := s.svc.Accounts.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	if err := s.sessions.login(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{Success: true, User: user})
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := s.svc.Accounts.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	if err := s.sessions.login(c, user.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Success: true, User: user})
}

// logout clears the session and drops the user's relay connections.
func (s *Server) logout(c echo.Context) error {
	if id, ok := s.sessions.userID(c); ok {
		s.hub.DisconnectUser(c.Request().Context(), id)
	}
	if err := s.sessions.logout(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{Success: true})
}

func (s *Server) profile(c echo.Context) error {
	view, err := s.svc.Accounts.Profile(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileResponse{Success: true, ProfileView: view})
}

func (s *Server) questions(c echo.Context) error {
	var req questionsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	qs, err := s.svc.Questions.Questions(c.Request().Context(), domain.QuestionFilter{
		Subject:    req.Subject,
		Difficulty: req.Difficulty,
		Count:      req.Count,
	})
	if err != nil {
		return err
	}
	if qs == nil {
		qs = []domain.Question{}
	}
	return c.JSON(http.StatusOK, questionsResponse{Success: true, Questions: qs})
}

func (s *Server) validateAnswer(c echo.Context) error {
	var req validateAnswerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	verdict, err := s.svc.Questions.Validate(c.Request().Context(), req.QuestionID, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verdictResponse{Success: true, AnswerVerdict: verdict})
}

func (s *Server) submitAssessment(c echo.Context) error {
	var attempt domain.AssessmentAttempt
	if err := c.Bind(&attempt); err != nil {
		return domain.ErrInvalidAttempt
	}
	result, err := s.svc.Assessments.Submit(c.Request().Context(), currentUser(c).ID, attempt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assessmentResponse{Success: true, AssessmentResult: result})
}

func (s *Server) achievements(c echo.Context) error {
	list, err := s.svc.Analytics.Achievements(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, achievementsResponse{Success: true, Achievements: list})
}

func (s *Server) analytics(c echo.Context) error {
	summary, err := s.svc.Analytics.Summary(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analyticsResponse{Success: true, Analytics: summary})
}

func (s *Server) listPods(c echo.Context) error {
	pods, err := s.svc.Pods.List(c.Request().Context())
	if err != nil {
		return err
	}
	if pods == nil {
		pods = []domain.Pod{}
	}
	return c.JSON(http.StatusOK, podsResponse{Success: true, Pods: pods})
}

func (s *Server) createPod(c echo.Context) error {
	var req createPodRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	pod, err := s.svc.Pods.Create(c.Request().Context(), currentUser(c).ID, domain.Pod{
		Name:        req.Name,
		Description: req.Description,
		Subject:     req.Subject,
		MaxMembers:  req.MaxMembers,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, podResponse{Success: true, Pod: pod})
}

func (s *Server) dailyChallenges(c echo.Context) error {
	list, err := s.svc.Challenges.Today(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, challengesResponse{Success: true, Challenges: list})
}

func (s *Server) tournaments(c echo.Context) error {
	list, err := s.svc.Tournaments.Active(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tournamentsResponse{Success: true, Tournaments: list})
}

func (s *Server) joinTournament(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: tournament id must be a number", domain.ErrInvalidRequest)
	}
	if err := s.svc.Tournaments.Join(c.Request().Context(), id, currentUser(c).ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, okResponse{Success: true})
}

func (s *Server) submitHelpRequest(c echo.Context) error {
	var req helpRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ticket, err := s.svc.Help.Submit(c.Request().Context(), currentUser(c).ID, domain.HelpTicket{
		Subject:     req.Subject,
		Category:    req.Category,
		Priority:    req.Priority,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, helpResponse{Success: true, TicketID: ticket.ID})
}

func (s *Server) findBattle(c echo.Context) error {
	battle, err := s.svc.Battles.Find(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, battleResponse{Success: true, Battle: battle})
}

func (s *Server) aiChat(c echo.Context) error {
	var req chatRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	reply := s.svc.Mentor.Reply(ctx, req.Message, req.Context)
	s.svc.Analytics.Record(ctx, currentUser(c).ID, app.EventMentorChat, map[string]any{
		"message": truncate(req.Message, chatEventPreview),
	})
	return c.JSON(http.StatusOK, chatResponse{Success: true, Response: reply.Text, Source: reply.Source})
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
