package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/kkuzmin/gabble/internal/app"
	"github.com/kkuzmin/gabble/internal/auth"
	"github.com/kkuzmin/gabble/internal/store"
)

type accountHandlers struct {
	svc   *auth.Service
	coord *app.Coordinator
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Error       bool   `json:"error"`
	Message     string `json:"message"`
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

func (h *accountHandlers) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Server is running!"})
}

func (h *accountHandlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.Username == "" || req.Password == "" || req.ConfirmPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Bad Request: missing field."})
		return
	}

	token, err := h.svc.Register(c.Request.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		status := http.StatusOK // validation outcomes mirror the client-facing contract, not HTTP semantics
		if errors.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": true, "message": clientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Message:     "Successfully registered",
		Username:    req.Username,
		AccessToken: token,
	})
}

func (h *accountHandlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Bad Request: missing field."})
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		status := http.StatusOK
		if errors.Is(err, store.ErrUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": true, "message": clientMessage(err)})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		Message:     "Successfully Logged In",
		Username:    req.Username,
		AccessToken: token,
	})
}

func (h *accountHandlers) rooms(c *gin.Context) {
	identity := c.GetString("identity")
	list, err := h.coord.ListRooms(c.Request.Context(), identity)
	if err != nil {
		log.Error().Err(err).Str("module", "http").Msg("room listing failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": true, "message": "Store unavailable, try again later."})
		return
	}
	c.JSON(http.StatusOK, list)
}

// clientMessage maps service errors onto the messages clients expect.
func clientMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrUserExists):
		return "Username already exists!"
	case errors.Is(err, auth.ErrBadCredentials):
		return "Please check username or password!"
	case errors.Is(err, store.ErrUnavailable):
		return "Store unavailable, try again later."
	default:
		return err.Error()
	}
}
