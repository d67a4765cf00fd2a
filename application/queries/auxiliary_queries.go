package queries

import "errors"

// ListQuestsQuery fetches a user's quests
type ListQuestsQuery struct {
	UserID string
	Status string
}

// Validate validates the ListQuestsQuery
func (q ListQuestsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// QuestView is the read model of a quest
type QuestView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	TimelineID  string `json:"timelineId,omitempty"`
	StartedAt   string `json:"startedAt"`
	CompletedAt string `json:"completedAt,omitempty"`
}

// ListQuestsResult carries the quests plus their provenance
type ListQuestsResult struct {
	Quests     []QuestView `json:"quests"`
	Provenance Provenance  `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *ListQuestsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}

// ListProposalsQuery fetches a user's memory-review proposals
type ListProposalsQuery struct {
	UserID string
}

// Validate validates the ListProposalsQuery
func (q ListProposalsQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	return nil
}

// ProposalView is the read model of a review proposal
type ProposalView struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	EntryID       string `json:"entryId"`
	TimelineID    string `json:"timelineId,omitempty"`
	ProposedStart string `json:"proposedStart,omitempty"`
	ProposedEnd   string `json:"proposedEnd,omitempty"`
	Reason        string `json:"reason,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

// ListProposalsResult carries the proposals plus their provenance
type ListProposalsResult struct {
	Proposals  []ProposalView `json:"proposals"`
	Provenance Provenance     `json:"provenance"`
}

// CacheOK implements bus.Cacheable
func (r *ListProposalsResult) CacheOK() bool {
	return r.Provenance.CacheOK()
}
