package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"thefinder/server/internal/filter"
)

// CityResponse is a catalog city with its selection state for the
// neighborhoods passed in the query.
type CityResponse struct {
	Name          string            `json:"name"`
	Center        orb.Point         `json:"center"`
	ZoomLevel     int               `json:"zoom_level"`
	Neighborhoods []string          `json:"neighborhoods"`
	State         filter.CheckState `json:"state"`
	Selected      []string          `json:"selected"`
}

// GetCities returns the city catalog.
func (h *Handler) GetCities(c *gin.Context) {
	selected := c.QueryArray(string(filter.FieldNeighborhoods))

	isSelected := make(map[string]bool, len(selected))
	for _, n := range selected {
		isSelected[n] = true
	}

	cities := h.catalog.Cities()
	response := make([]CityResponse, 0, len(cities))
	for _, city := range cities {
		picked := make([]string, 0)
		for _, n := range city.Neighborhoods {
			if isSelected[n] {
				picked = append(picked, n)
			}
		}
		response = append(response, CityResponse{
			Name:          city.Name,
			Center:        city.Center,
			ZoomLevel:     city.ZoomLevel,
			Neighborhoods: city.Neighborhoods,
			State:         filter.CityState(selected, city.Neighborhoods),
			Selected:      picked,
		})
	}
	c.JSON(http.StatusOK, response)
}
