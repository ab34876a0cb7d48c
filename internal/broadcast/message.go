package broadcast

import (
	"encoding/json"

	"github.com/pscheid92/pollpulse/internal/domain"
)

const (
	messageTypeJoinPoll   = "join-poll"
	messageTypePollUpdate = "poll-update"
)

type controlMessage struct {
	Type   string `json:"type"`
	PollID string `json:"pollId"`
}

type pollUpdateMessage struct {
	Type    string       `json:"type"`
	PollID  string       `json:"pollId"`
	Results []pollResult `json:"results"`
}

type pollResult struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

func encodePollUpdate(pollID string, tally []domain.OptionTally) ([]byte, error) {
	results := make([]pollResult, 0, len(tally))
	for _, t := range tally {
		results = append(results, pollResult{ID: t.ID, Text: t.Text, VoteCount: t.VoteCount})
	}
	return json.Marshal(pollUpdateMessage{
		Type:    messageTypePollUpdate,
		PollID:  pollID,
		Results: results,
	})
}

// parseJoin returns the poll id of a well-formed join-poll message.
func parseJoin(data []byte) (string, bool) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false
	}
	if msg.Type != messageTypeJoinPoll || msg.PollID == "" {
		return "", false
	}
	return msg.PollID, true
}
