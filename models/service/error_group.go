package service

// Message is one (type, description) pair inside an ErrorGroup.
type Message struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Code        string `json:"code,omitempty"`
}

// ErrorGroup is a structured error value: one status type plus the
// diagnostic messages explaining it. The ledger records the status
// once, then fans the messages out as independent writes.
type ErrorGroup struct {
	StatusType string    `json:"status_type"`
	Messages   []Message `json:"messages"`
}

func NewErrorGroup(statusType string) *ErrorGroup {
	return &ErrorGroup{
		StatusType: statusType,
		Messages:   make([]Message, 0),
	}
}

func (g *ErrorGroup) Add(msgType, description string) {
	g.Messages = append(g.Messages, Message{Type: msgType, Description: description})
}

// ErrorGroupFromIssues converts a validator's issue list into an
// ErrorGroup, preserving cell addresses in the descriptions.
func ErrorGroupFromIssues(statusType string, issues []*ValidationIssue) *ErrorGroup {
	group := NewErrorGroup(statusType)
	for _, issue := range issues {
		group.Messages = append(group.Messages, Message{
			Type:        issue.Type,
			Description: issue.String(),
			Code:        issue.Code,
		})
	}
	return group
}
