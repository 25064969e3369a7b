// Package notify is the outbound notification boundary. Finalizing a
// proposal hands it to downstream plan generation through this interface;
// the engine itself never renders participant itineraries.
package notify

import "github.com/dinehop/dinehop/core/model"

// Publisher emits lifecycle notifications. Implementations must be
// best-effort: a publish failure is logged by the caller and never aborts
// the operation that triggered it.
type Publisher interface {
	PublishJobEvent(job model.MatchingJob) error
	PublishProposalFinalized(eventID string, version int) error
	PublishProposalUnreleased(eventID string, version int) error
	Close() error
}

// NopPublisher drops all notifications.
type NopPublisher struct{}

func (NopPublisher) PublishJobEvent(model.MatchingJob) error     { return nil }
func (NopPublisher) PublishProposalFinalized(string, int) error  { return nil }
func (NopPublisher) PublishProposalUnreleased(string, int) error { return nil }
func (NopPublisher) Close() error                                { return nil }
