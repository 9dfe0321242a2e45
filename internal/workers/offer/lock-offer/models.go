// internal/workers/offer/lock-offer/models.go
package lockoffer

type Input struct {
	OfferID string `json:"offerId"`
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
	OfferLocked bool   `json:"offerLocked"`
}
