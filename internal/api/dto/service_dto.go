package dto

import "github.com/opendesk/helpdesk-service/internal/domain"

// ServiceRequest payload for catalog create/update.
type ServiceRequest struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// ServiceResponse projection. Price stays the decimal string the store holds.
type ServiceResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Price  string `json:"price"`
	Active bool   `json:"active"`
}

// NewServiceResponse projects a domain service.
func NewServiceResponse(service *domain.Service) ServiceResponse {
	return ServiceResponse{
		ID:     service.ID,
		Title:  service.Title,
		Price:  service.Price,
		Active: service.Active,
	}
}

// NewServiceResponses projects a slice.
func NewServiceResponses(services []domain.Service) []ServiceResponse {
	result := make([]ServiceResponse, 0, len(services))
	for i := range services {
		result = append(result, NewServiceResponse(&services[i]))
	}
	return result
}
