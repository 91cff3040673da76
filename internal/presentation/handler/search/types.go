package search

import "github.com/beatvote/beatvote/internal/domain"

type searchResponse struct {
	Query  string                  `json:"query"`
	Tracks []domain.TrackCandidate `json:"tracks"`
}
