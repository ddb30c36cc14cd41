package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"kind-match/internal/matches"
	"kind-match/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type swipeRequest struct {
	ListingID string        `json:"listingId" binding:"required"`
	Action    models.Action `json:"action" binding:"required"`
	Message   *string       `json:"message"`
}

type applyRequest struct {
	ListingID string  `json:"listingId" binding:"required"`
	Message   *string `json:"message"`
}

type messageRequest struct {
	Content string             `json:"content" binding:"required"`
	Type    models.MessageType `json:"type"`
}

type profileRequest struct {
	PreferredJobTypes []string        `json:"preferredJobTypes"`
	Location          models.Location `json:"location"`
	ExpectedSalaryMin int             `json:"expectedSalaryMin"`
	ExpectedSalaryMax int             `json:"expectedSalaryMax"`
	Skills            []string        `json:"skills"`
	YearsExperience   float64         `json:"yearsExperience"`
	Availability      models.Slots    `json:"availability"`
}

type creditsRequest struct {
	Value *int `json:"value" binding:"required"`
}

func (s *Server) bind(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		s.fail(c, models.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func (s *Server) getCredits(c *gin.Context) {
	status, err := s.svc.Credits.Status(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, status)
}

func (s *Server) getFeed(c *gin.Context) {
	ranked, err := s.svc.Feed.Feed(c.Request.Context(), userOf(c), queryInt(c, "limit", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, ranked)
}

func (s *Server) postSwipe(c *gin.Context) {
	var req swipeRequest
	if !s.bind(c, &req) {
		return
	}

	res, err := s.svc.Feed.Swipe(c.Request.Context(), userOf(c), req.ListingID, req.Action, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, res)
}

func (s *Server) postRewind(c *gin.Context) {
	res, err := s.svc.Feed.Rewind(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, res)
}

func (s *Server) postApplication(c *gin.Context) {
	var req applyRequest
	if !s.bind(c, &req) {
		return
	}

	app, err := s.svc.Applications.Apply(c.Request.Context(), userOf(c), req.ListingID, req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, app)
}

func (s *Server) getPending(c *gin.Context) {
	var listingID *string
	if v := c.Query("listingId"); v != "" {
		listingID = &v
	}

	rows, err := s.svc.Applications.ListPendingForEmployer(c.Request.Context(), userOf(c), listingID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, rows)
}

// ownApplication loads the application only if the caller owns its listing.
func (s *Server) ownApplication(c *gin.Context) (string, bool) {
	app, err := s.svc.Applications.AuthorizeEmployer(c.Request.Context(), userOf(c), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return "", false
	}
	return app.ID, true
}

func (s *Server) postApprove(c *gin.Context) {
	id, allowed := s.ownApplication(c)
	if !allowed {
		return
	}

	res, err := s.svc.Applications.Approve(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, res)
}

func (s *Server) postReject(c *gin.Context) {
	id, allowed := s.ownApplication(c)
	if !allowed {
		return
	}

	if err := s.svc.Applications.Reject(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"applicationId": id})
}

func (s *Server) postSkip(c *gin.Context) {
	id, allowed := s.ownApplication(c)
	if !allowed {
		return
	}

	if err := s.svc.Applications.Skip(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"applicationId": id})
}

func (s *Server) getMatches(c *gin.Context) {
	opts := matches.ListOptions{OnlyWithoutConversation: c.Query("withoutConversation") == "true"}

	list, err := s.svc.Matches.GetMatchesForUser(c.Request.Context(), userOf(c), roleOf(c), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, list)
}

// ownMatch loads a match the caller takes part in.
func (s *Server) ownMatch(c *gin.Context) (*models.Match, bool) {
	match, err := s.svc.Matches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	own := match.WorkerID
	if roleOf(c) == models.RoleEmployer {
		own = match.EmployerID
	}
	if own != userOf(c) {
		s.fail(c, models.NotFound("match", match.ID))
		return nil, false
	}
	return match, true
}

func (s *Server) postMatchOpened(c *gin.Context) {
	match, allowed := s.ownMatch(c)
	if !allowed {
		return
	}

	if err := s.svc.Matches.MarkOpened(c.Request.Context(), match.ID, roleOf(c)); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"matchId": match.ID})
}

func (s *Server) postConversation(c *gin.Context) {
	match, allowed := s.ownMatch(c)
	if !allowed {
		return
	}

	conv, err := s.svc.Conversations.FindOrCreate(c.Request.Context(), match.EmployerID, match.WorkerID, &match.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, conv)
}

func (s *Server) ownConversation(c *gin.Context) (*models.Conversation, bool) {
	conv, err := s.svc.Conversations.GetForParticipant(c.Request.Context(), c.Param("id"), userOf(c))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return conv, true
}

func (s *Server) getMessages(c *gin.Context) {
	conv, allowed := s.ownConversation(c)
	if !allowed {
		return
	}

	msgs, err := s.svc.Conversations.ListMessages(c.Request.Context(), conv.ID, queryInt(c, "limit", 0), queryInt(c, "offset", 0))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, msgs)
}

func (s *Server) postMessage(c *gin.Context) {
	var req messageRequest
	if !s.bind(c, &req) {
		return
	}

	msg, err := s.svc.Conversations.SendMessage(c.Request.Context(), c.Param("id"), userOf(c), req.Content, req.Type)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, msg)
}

func (s *Server) postRead(c *gin.Context) {
	n, err := s.svc.Conversations.MarkRead(c.Request.Context(), c.Param("id"), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"marked": n})
}

func (s *Server) deleteConversation(c *gin.Context) {
	conv, allowed := s.ownConversation(c)
	if !allowed {
		return
	}

	if err := s.svc.Conversations.DeleteConversation(c.Request.Context(), conv.ID); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"conversationId": conv.ID})
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for name, p := range s.svc.Probes {
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("probe", name), zap.Error(err))
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, envelope{Data: checks, Error: "unhealthy"})
		return
	}
	ok(c, gin.H{"status": "ok", "checks": checks})
}

func (s *Server) getProfile(c *gin.Context) {
	profile, err := s.svc.Profiles.GetWorkerProfile(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	if profile == nil {
		s.fail(c, models.NotFound("worker profile", userOf(c)))
		return
	}
	ok(c, profile)
}

// putProfile replaces the self-edited part of the caller's profile. Rating
// and boost are managed elsewhere and are never taken from the request.
func (s *Server) putProfile(c *gin.Context) {
	var req profileRequest
	if !s.bind(c, &req) {
		return
	}

	profile := &models.WorkerProfile{
		UserID:            userOf(c),
		PreferredJobTypes: req.PreferredJobTypes,
		Location:          req.Location,
		ExpectedSalaryMin: req.ExpectedSalaryMin,
		ExpectedSalaryMax: req.ExpectedSalaryMax,
		Skills:            req.Skills,
		YearsExperience:   req.YearsExperience,
		Availability:      req.Availability,
	}
	if err := profile.Validate(); err != nil {
		s.fail(c, err)
		return
	}

	if err := s.svc.Profiles.UpsertWorkerProfile(c.Request.Context(), profile); err != nil {
		s.fail(c, err)
		return
	}
	s.svc.Feed.Invalidate(c.Request.Context(), profile.UserID)

	ok(c, profile)
}

func (s *Server) getConversations(c *gin.Context) {
	convs, err := s.svc.Conversations.ListForUser(c.Request.Context(), userOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, convs)
}

func (s *Server) putCredits(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.fail(c, models.Validation("invalid user id %q", c.Param("id")))
		return
	}

	var req creditsRequest
	if !s.bind(c, &req) {
		return
	}

	if err := s.svc.Credits.Grant(c.Request.Context(), userID, *req.Value); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"userId": userID, "credits": *req.Value})
}
