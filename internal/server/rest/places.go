package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/placekeeper/placekeeper/internal/common"
	"github.com/placekeeper/placekeeper/internal/server/models"
)

type placeResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	OwnerID     string  `json:"creator"`
}

func (s *Server) placeToResponse(c *gin.Context, p *models.Place) placeResponse {
	return placeResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    s.presign(c, p.ImageRef),
		Address:     p.Address,
		Lat:         p.Location.Lat,
		Lng:         p.Location.Lng,
		OwnerID:     p.OwnerID,
	}
}

// CreatePlace accepts multipart form data: title, description, address and
// an optional image. The owner is the authenticated requester.
func (s *Server) CreatePlace(c *gin.Context) {
	title := c.PostForm("title")
	description := c.PostForm("description")
	address := c.PostForm("address")

	imageRef, err := s.storeUploadedImage(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	place, err := s.places.Create(c.Request.Context(), requesterID(c), title, description, address, imageRef)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"place": s.placeToResponse(c, place)})
}

func (s *Server) GetPlace(c *gin.Context) {
	place, err := s.places.Get(c.Request.Context(), c.Param("pid"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"place": s.placeToResponse(c, place)})
}

func (s *Server) ListPlacesByOwner(c *gin.Context) {
	places, err := s.places.ListByOwner(c.Request.Context(), c.Param("uid"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	result := make([]placeResponse, 0, len(places))
	for _, p := range places {
		result = append(result, s.placeToResponse(c, p))
	}

	c.JSON(http.StatusOK, gin.H{"places": result})
}

type updatePlaceRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (s *Server) UpdatePlace(c *gin.Context) {
	var req updatePlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	place, err := s.places.Update(c.Request.Context(), c.Param("pid"), requesterID(c), req.Title, req.Description)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"place": s.placeToResponse(c, place)})
}

func (s *Server) DeletePlace(c *gin.Context) {
	if err := s.places.Delete(c.Request.Context(), c.Param("pid"), requesterID(c)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted place"})
}
