package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placekeeper/placekeeper/internal/common"
)

type userResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ImageURL       string `json:"imageUrl,omitempty"`
	NumberOfPlaces int    `json:"places"`
}

type authResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

// Signup registers a new account. Accepts multipart form data so the
// optional profile image can ride along with the credentials.
func (s *Server) Signup(c *gin.Context) {
	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")

	imageRef, err := s.storeUploadedImage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	user, token, err := s.users.Signup(c.Request.Context(), name, email, password, imageRef)
	if err != nil {
		// The original API reports a taken email as a validation-class
		// failure, not a generic conflict.
		if errors.Is(err, common.ErrorConflict) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
				errorResponse{Message: "user exists already, please login instead", Code: codeConflict})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{UserID: user.ID, Email: user.Email, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	user, token, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.AbortWithStatusJSON(http.StatusForbidden,
				errorResponse{Message: "invalid credentials, could not log you in", Code: codeUnauthorized})
			return
		}
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{UserID: user.ID, Email: user.Email, Token: token})
}

func (s *Server) ListUsers(c *gin.Context) {
	summaries, err := s.users.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}

	result := make([]userResponse, 0, len(summaries))
	for _, u := range summaries {
		result = append(result, userResponse{
			ID:             u.ID,
			Name:           u.Name,
			Email:          u.Email,
			ImageURL:       s.presign(c, u.ImageRef),
			NumberOfPlaces: u.NumberOfPlaces,
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": result})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (s *Server) RequestReset(c *gin.Context) {
	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	// The token itself travels only via email.
	if _, err := s.users.RequestReset(c.Request.Context(), req.Email); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password reset email sent"})
}

func (s *Server) CheckResetToken(c *gin.Context) {
	userID, err := s.users.CheckResetToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"userId": userID})
}

type consumeResetRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

func (s *Server) ConsumeReset(c *gin.Context) {
	var req consumeResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	err := s.users.ConsumeReset(c.Request.Context(), req.UserID, c.Param("token"), req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// storeUploadedImage stores the optional "image" multipart part and returns
// its storage key, or "" when the request carries no image.
func (s *Server) storeUploadedImage(c *gin.Context) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", common.ErrorValidation
	}

	src, err := file.Open()
	if err != nil {
		return "", common.ErrorValidation
	}
	defer src.Close()

	key, err := s.images.Store(c.Request.Context(), src, file.Header.Get("Content-Type"))
	if err != nil {
		s.logger.Error(c.Request.Context(), "image upload failed", "error", err.Error())
		return "", common.ErrorInternal
	}

	return key, nil
}

// presign turns a storage key into a short-lived GET URL. Failures degrade
// to an empty URL rather than failing the whole response.
func (s *Server) presign(c *gin.Context, key string) string {
	if key == "" {
		return ""
	}
	url, err := s.images.PresignGetURL(c.Request.Context(), key)
	if err != nil {
		s.logger.Warn(c.Request.Context(), "presign failed", "key", key, "error", err.Error())
		return ""
	}
	return url
}
