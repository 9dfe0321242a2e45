// internal/workers/offer/respond-to-offer/models.go
package respondtooffer

type Input struct {
	OfferID  string `json:"offerId"`
	Accepted bool   `json:"accepted"`
}

type Output struct {
	OfferID     string `json:"offerId"`
	OfferStatus string `json:"offerStatus"`
	OfferLocked bool   `json:"offerLocked"`
}
