package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KyleYagher/Jits-Apparel-sub000/internal/application"
	"github.com/KyleYagher/Jits-Apparel-sub000/internal/domain"
	"github.com/KyleYagher/Jits-Apparel-sub000/pkg/middleware"
)

// Identity headers set by the auth gateway in front of the service.
const (
	HeaderUserID   = middleware.HeaderUserID
	HeaderUserRole = "X-User-Role"
)

type addressRequest struct {
	RecipientName string `json:"recipientName"`
	Company       string `json:"company"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	AddressLine1  string `json:"addressLine1" binding:"required,max=200"`
	AddressLine2  string `json:"addressLine2" binding:"max=200"`
	Suburb        string `json:"suburb"`
	City          string `json:"city" binding:"required"`
	Province      string `json:"province" binding:"required"`
	PostalCode    string `json:"postalCode" binding:"required,postal_code"`
	Country       string `json:"country" binding:"required,country_code"`
}

func (r addressRequest) toDomain() domain.Address {
	return domain.Address{
		RecipientName: strings.TrimSpace(r.RecipientName),
		Company:       strings.TrimSpace(r.Company),
		Phone:         strings.TrimSpace(r.Phone),
		Email:         strings.TrimSpace(r.Email),
		AddressLine1:  strings.TrimSpace(r.AddressLine1),
		AddressLine2:  strings.TrimSpace(r.AddressLine2),
		Suburb:        strings.TrimSpace(r.Suburb),
		City:          strings.TrimSpace(r.City),
		Province:      strings.TrimSpace(r.Province),
		PostalCode:    strings.TrimSpace(r.PostalCode),
		Country:       r.Country,
	}
}

type parcelRequest struct {
	LengthCm    float64 `json:"lengthCm" binding:"gt=0"`
	WidthCm     float64 `json:"widthCm" binding:"gt=0"`
	HeightCm    float64 `json:"heightCm" binding:"gt=0"`
	WeightKg    float64 `json:"weightKg" binding:"gt=0"`
	Description string  `json:"description"`
}

func toParcels(in []parcelRequest) []domain.Parcel {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Parcel, 0, len(in))
	for _, p := range in {
		out = append(out, domain.Parcel{
			LengthCm:    p.LengthCm,
			WidthCm:     p.WidthCm,
			HeightCm:    p.HeightCm,
			WeightKg:    p.WeightKg,
			Description: p.Description,
		})
	}
	return out
}

type ratesRequest struct {
	Address       addressRequest  `json:"address"`
	Parcels       []parcelRequest `json:"parcels" binding:"omitempty,dive"`
	DeclaredValue float64         `json:"declaredValue" binding:"gte=0"`
}

// ServiceLevelCode is checked by the orchestrator so a blank code reports SERVICE_LEVEL_REQUIRED.
type createShipmentRequest struct {
	ServiceLevelCode string          `json:"serviceLevelCode" binding:"omitempty,service_level"`
	Parcels          []parcelRequest `json:"parcels" binding:"omitempty,dive"`
}

func requesterFrom(c *gin.Context) application.Requester {
	return application.Requester{
		UserID:  strings.TrimSpace(c.GetHeader(HeaderUserID)),
		IsAdmin: strings.EqualFold(strings.TrimSpace(c.GetHeader(HeaderUserRole)), "admin"),
	}
}
