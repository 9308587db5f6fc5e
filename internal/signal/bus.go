package signal

import (
	"fmt"

	"github.com/aydocorp/opscomposer/pkg/core"
)

// Topic names.
const (
	TopicSaveRequested  = "composer.save-requested"
	TopicMissionSaved   = "composer.mission-saved"
	TopicMissionDeleted = "composer.mission-deleted"
)

// SaveRequest asks the mounted composer to run its commit path.
// Source identifies who asked (e.g. "header").
type SaveRequest struct {
	Source string
}

// MissionSaved announces a mission the persistence API accepted.
// Remote is set when the notice came from the service rather than this process.
type MissionSaved struct {
	Mission core.Mission
	Created bool
	Remote  bool
}

// MissionDeleted announces that a mission id no longer exists.
type MissionDeleted struct {
	MissionID string
	Remote    bool
}

// Bus groups the process-wide topics shared by the composer, its host and any
// list views.
type Bus struct {
	SaveRequested  *Topic[SaveRequest]
	MissionSaved   *Topic[MissionSaved]
	MissionDeleted *Topic[MissionDeleted]
}

// NewBus creates every topic.
func NewBus(logger Logger) (*Bus, error) {
	save, err := NewTopic[SaveRequest](TopicSaveRequested, logger)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", TopicSaveRequested, err)
	}
	saved, err := NewTopic[MissionSaved](TopicMissionSaved, logger)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", TopicMissionSaved, err)
	}
	deleted, err := NewTopic[MissionDeleted](TopicMissionDeleted, logger)
	if err != nil {
		return nil, fmt.Errorf("topic %s: %w", TopicMissionDeleted, err)
	}
	return &Bus{
		SaveRequested:  save,
		MissionSaved:   saved,
		MissionDeleted: deleted,
	}, nil
}
