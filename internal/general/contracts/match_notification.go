package contracts

import (
	"encoding/json"

	"rides-matcher/internal/domain/ride"
)

// MatchNotification is published on the notifications queue for every
// processed request. CaronaID is null when no ride matched.
type MatchNotification struct {
	CaronaID      *ride.ID `json:"caronaId"`
	SolicitacaoID ride.ID  `json:"solicitacaoId"`
}

// NewMatchNotification builds the wire payload for outcome.
func NewMatchNotification(outcome ride.MatchOutcome) MatchNotification {
	return MatchNotification{
		CaronaID:      outcome.MatchedRideID,
		SolicitacaoID: outcome.RequestID,
	}
}

// Outcome converts the payload back into a domain outcome.
func (n MatchNotification) Outcome() ride.MatchOutcome {
	return ride.MatchOutcome{RequestID: n.SolicitacaoID, MatchedRideID: n.CaronaID}
}

// EncodeMatchNotification marshals the notification for outcome.
func EncodeMatchNotification(outcome ride.MatchOutcome) ([]byte, error) {
	return json.Marshal(NewMatchNotification(outcome))
}

// DecodeMatchNotification parses a notification body.
func DecodeMatchNotification(body []byte) (MatchNotification, error) {
	var n MatchNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return MatchNotification{}, err
	}
	return n, nil
}
