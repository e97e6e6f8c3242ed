package ride

// MatchOutcome is the result of matching one request. A nil MatchedRideID
// means no candidate was found, which is not an error.
type MatchOutcome struct {
	RequestID     ID
	MatchedRideID *ID
}

// NewMatchOutcome picks the first candidate with an id, if any.
func NewMatchOutcome(requestID ID, candidates []CandidateRide) MatchOutcome {
	outcome := MatchOutcome{RequestID: requestID}
	for _, c := range candidates {
		if c.ID.IsZero() {
			continue
		}
		id := c.ID
		outcome.MatchedRideID = &id
		break
	}
	return outcome
}

// Matched reports whether a ride was found.
func (outcome MatchOutcome) Matched() bool {
	return outcome.MatchedRideID != nil
}
