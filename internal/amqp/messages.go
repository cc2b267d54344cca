package amqp

import (
	"encoding/json"
	"time"
)

// ImportJobMessage asks a worker to import one file. It carries only the
// path and source name; the worker reads the file itself.
type ImportJobMessage struct {
	Path       string    `json:"path"`
	SourceName string    `json:"sourceName"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewImportJobMessage(path, sourceName string) *ImportJobMessage {
	return &ImportJobMessage{
		Path:       path,
		SourceName: sourceName,
		Timestamp:  time.Now(),
	}
}

func (m *ImportJobMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportJobMessageFromJSON(data []byte) (*ImportJobMessage, error) {
	var msg ImportJobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ImportCompletedMessage reports the outcome of a finished import session.
type ImportCompletedMessage struct {
	SessionID  string    `json:"sessionId"`
	SourceName string    `json:"sourceName"`
	Status     string    `json:"status"`
	Imported   int       `json:"imported"`
	Duplicates int       `json:"duplicates"`
	Errors     int       `json:"errors"`
	Timestamp  time.Time `json:"timestamp"`
}

func (m *ImportCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ImportCompletedMessageFromJSON(data []byte) (*ImportCompletedMessage, error) {
	var msg ImportCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
