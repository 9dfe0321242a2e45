// internal/workers/offer/send-offer/models.go
package sendoffer

type Input struct {
	OfferID string `json:"offerId"`
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
	OfferLocked bool   `json:"offerLocked"`
}
