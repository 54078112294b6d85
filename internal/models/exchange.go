package models

// Export types written to metadata.exportType.
const (
	ExportTypeFullBackup    = "full-backup"
	ExportTypeSingleSubject = "single-subject"
)

const ExchangeVersion = "1.0"

// ExportStats is the stats block of an exchange document. TotalSubjects and
// TotalSessions are omitted from single-subject exports.
type ExportStats struct {
	TotalSubjects int         `json:"totalSubjects,omitempty"`
	TotalDecks    int         `json:"totalDecks"`
	TotalCards    int         `json:"totalCards"`
	TotalSessions int         `json:"totalSessions,omitempty"`
	CardsByBox    map[int]int `json:"cardsByBox"`
}

type ExportMetadata struct {
	Created     string       `json:"created"`
	Source      string       `json:"source,omitempty"`
	ExportType  string       `json:"exportType,omitempty"`
	SubjectName string       `json:"subjectName,omitempty"`
	Stats       *ExportStats `json:"stats,omitempty"`
	// Subject and Language appear in hand-written legacy files.
	Subject  string `json:"subject,omitempty"`
	Language string `json:"language,omitempty"`
}

type DeckDocument struct {
	Deck
	Cards []Flashcard `json:"cards"`
}

type SubjectDocument struct {
	Subject
	Decks []DeckDocument `json:"decks"`
}

type FullBackup struct {
	Version  string            `json:"version"`
	Metadata ExportMetadata    `json:"metadata"`
	Subjects []SubjectDocument `json:"subjects"`
	Decks    []DeckDocument    `json:"decks"`
	Sessions []StudySession    `json:"sessions,omitempty"`
}

type SingleSubjectExport struct {
	Version  string          `json:"version"`
	Metadata ExportMetadata  `json:"metadata"`
	Subject  SubjectDocument `json:"subject"`
}

// ImportOptions controls destructive behaviour of an import.
type ImportOptions struct {
	ClearExisting bool `json:"clearExisting"`
}

// ImportSummary counts what an import wrote.
type ImportSummary struct {
	Kind     string `json:"kind"`
	Subjects int    `json:"subjects"`
	Decks    int    `json:"decks"`
	Cards    int    `json:"cards"`
	Sessions int    `json:"sessions"`
	Cleared  bool   `json:"cleared"`
	// RenamedSubject is set when a single-subject import collided by name.
	RenamedSubject string `json:"renamedSubject,omitempty"`
}

// ImportResult is the structured outcome handed to the rendering shell.
type ImportResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Stats   *ImportSummary `json:"stats,omitempty"`
}
