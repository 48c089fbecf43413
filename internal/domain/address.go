package domain

import "strings"

// Address is a delivery (or collection) address.
type Address struct {
	RecipientName string `bson:"recipientName" json:"recipientName"`
	Company       string `bson:"company,omitempty" json:"company,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	AddressLine1  string `bson:"addressLine1" json:"addressLine1"`
	AddressLine2  string `bson:"addressLine2,omitempty" json:"addressLine2,omitempty"`
	Suburb        string `bson:"suburb,omitempty" json:"suburb,omitempty"`
	City          string `bson:"city" json:"city"`
	Province      string `bson:"province" json:"province"`
	PostalCode    string `bson:"postalCode" json:"postalCode"`
	Country       string `bson:"country" json:"country"`
}

// Validate checks the fields a carrier needs to quote or ship.
func (a Address) Validate() error {
	var missing []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	check("addressLine1", a.AddressLine1)
	check("city", a.City)
	check("province", a.Province)
	check("postalCode", a.PostalCode)
	check("country", a.Country)

	if len(missing) > 0 {
		return NewError(KindValidation, "delivery address is missing %s", strings.Join(missing, ", "))
	}
	return nil
}
