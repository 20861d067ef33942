package webapi

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Essorvi/tgbeta-v8/types"
)

// Server is the HTTP face of the bot: the Telegram webhook plus two
// small read-only endpoints for operators.
type Server struct {
	secret  string
	bot     *bot.Bot
	handler bot.HandlerFunc
	users   types.UserStore
	stats   types.StatsStore
}

func NewServer(secret string, b *bot.Bot, handler bot.HandlerFunc, users types.UserStore, stats types.StatsStore) *Server {
	return &Server{
		secret:  secret,
		bot:     b,
		handler: handler,
		users:   users,
		stats:   stats,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	api.GET("/", s.root)
	api.POST("/webhook/:secret", s.webhook)
	api.GET("/users", s.listUsers)
	api.GET("/stats", s.getStats)

	return router
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "УЗРИ - Telegram Bot API", "status": "running"})
}

// webhook accepts one Telegram update. The path secret is the only
// authentication; a mismatch is a hard 403. The update is handled to
// completion before the 200 goes out, so a crash mid-update leaves no
// silently acknowledged work; Telegram redelivers on a missing ack.
func (s *Server) webhook(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.Param("secret")), []byte(s.secret)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook secret"})
		return
	}

	var update models.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Printf("Webhook decode failed: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid update"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 90*time.Second)
	defer cancel()
	s.handler(ctx, s.bot, &update)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type userResponse struct {
	TelegramID        int64      `json:"telegram_id"`
	Username          string     `json:"username"`
	FirstName         string     `json:"first_name"`
	Balance           float64    `json:"balance"`
	SubscriptionTier  string     `json:"subscription_tier"`
	SubscriptionUntil *time.Time `json:"subscription_until,omitempty"`
	TotalReferrals    int        `json:"total_referrals"`
	IsChannelMember   bool       `json:"is_channel_member"`
	CreatedAt         time.Time  `json:"created_at"`
	LastActive        time.Time  `json:"last_active"`
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.ListUsers(1000)
	if err != nil {
		log.Printf("Error listing users: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{
			TelegramID:        u.TelegramID,
			Username:          u.Username,
			FirstName:         u.FirstName,
			Balance:           u.Balance,
			SubscriptionTier:  string(u.SubscriptionTier),
			SubscriptionUntil: u.SubscriptionUntil,
			TotalReferrals:    u.TotalReferrals,
			IsChannelMember:   u.IsChannelMember,
			CreatedAt:         u.CreatedAt,
			LastActive:        u.LastActive,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getStats(c *gin.Context) {
	st, err := s.stats.GetStats()
	if err != nil {
		log.Printf("Error loading stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total_users":          st.TotalUsers,
		"total_searches":       st.TotalSearches,
		"total_referrals":      st.TotalReferrals,
		"active_subscriptions": st.ActiveSubscriptions,
		"search_revenue":       st.SearchRevenue,
	})
}
