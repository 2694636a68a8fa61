package server

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type adminRecord struct {
	ID           string
	Username     string
	Name         string
	PasswordHash string
}

type participantRecord struct {
	ID           string
	Username     string
	PasswordHash string
	Tel          string
	GameCode     string // empty when not joined
}

// ConnectedUser is one entry of the online-participant roster.
type ConnectedUser struct {
	ID  string `json:"id"`
	Tel string `json:"tel"`
}

// MissionRankEntry is one row of the mission ranking, ordered by completion
// time. Rank is dense: the first finisher gets 1.
type MissionRankEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	Tel         string `json:"tel"`
	CompletedAt string `json:"completedAt"`
}

// SpeedRankEntry is one row of the speed-game ranking, ordered by the rank
// frozen at buzz time.
type SpeedRankEntry struct {
	Rank      int    `json:"rank"`
	ID        string `json:"id"`
	ClickedAt string `json:"clickedAt"`
}

// Quiz is the full quiz record, including the answer: the play flow checks
// answers client-side and reports solves back.
type Quiz struct {
	No         int    `json:"no"`
	Group      string `json:"group"`
	Title      string `json:"title"`
	Contents   string `json:"contents"`
	OptionKind string `json:"optionKind"`
	Option1    string `json:"option1,omitempty"`
	Option2    string `json:"option2,omitempty"`
	Option3    string `json:"option3,omitempty"`
	Option4    string `json:"option4,omitempty"`
	Answer     string `json:"answer"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// QuizInput is the writable subset of a quiz.
type QuizInput struct {
	Group      string `json:"group"`
	Title      string `json:"title"`
	Contents   string `json:"contents"`
	OptionKind string `json:"optionKind"`
	Option1    string `json:"option1"`
	Option2    string `json:"option2"`
	Option3    string `json:"option3"`
	Option4    string `json:"option4"`
	Answer     string `json:"answer"`
	ImageURL   string `json:"imageUrl"`
}

// QuizRef is the lightweight (number, group) pair used to build the
// dashboard structure without loading full quiz bodies.
type QuizRef struct {
	No    int
	Group string
}

type Store interface {
	// Administrators.
	CountAdmins(ctx context.Context) (int, error)
	CreateAdmin(ctx context.Context, username, name, passwordHash string) (string, error)
	AdminByUsername(ctx context.Context, username string) (adminRecord, error)
	CreateAdminSession(ctx context.Context, adminID string) (string, error)
	AdminFromSession(ctx context.Context, sessionID string) (adminSession, error)
	DeleteAdminSession(ctx context.Context, sessionID string) error
	AdminGameCode(ctx context.Context, adminID string) (string, error)
	SetAdminGameCode(ctx context.Context, adminID, code string) error
	AdminIDByGameCode(ctx context.Context, code string) (string, error)
	GameStarted(ctx context.Context, adminID string) (bool, error)
	SetGameStarted(ctx context.Context, adminID string, started bool) error
	GameStartedByCode(ctx context.Context, code string) (bool, error)

	// Participants.
	CreateParticipant(ctx context.Context, username, passwordHash, tel string) error
	ParticipantByUsername(ctx context.Context, username string) (participantRecord, error)
	ParticipantGameCode(ctx context.Context, participantID string) (string, error)
	CreateParticipantSession(ctx context.Context, participantID string) (string, error)
	ParticipantFromSession(ctx context.Context, token string) (participantSession, error)
	DeleteParticipantSessions(ctx context.Context, participantID string) error
	SetParticipantGameCode(ctx context.Context, participantID, code string) error
	ClearParticipantGame(ctx context.Context, participantID string) error
	MarkOnline(ctx context.Context, participantID string) error
	ListOnline(ctx context.Context, gameCode string) ([]ConnectedUser, error)
	ForceOffline(ctx context.Context, gameCode string) error

	// Quiz content.
	CreateQuiz(ctx context.Context, adminID string, q QuizInput) (int, error)
	ListQuizzes(ctx context.Context, adminID string) ([]Quiz, error)
	QuizzesByGroup(ctx context.Context, adminID, group string) ([]Quiz, error)
	QuizRefs(ctx context.Context, adminID string) ([]QuizRef, error)
	CountQuizzes(ctx context.Context, adminID string) (int, error)
	UpdateQuiz(ctx context.Context, adminID string, no int, q QuizInput) error
	DeleteQuiz(ctx context.Context, adminID string, no int) error

	// Participant progress.
	RecordSolve(ctx context.Context, participantID string, quizNo int) (already bool, err error)
	SolvedQuizNos(ctx context.Context, participantID string) ([]int, error)
	CountSolved(ctx context.Context, participantID, adminID string) (int, error)
	ClearProgress(ctx context.Context, gameCode string) error

	// Mission ranking.
	RecordMissionComplete(ctx context.Context, participantID string) (already bool, err error)
	MissionRanking(ctx context.Context, gameCode string) ([]MissionRankEntry, error)

	// Speed game ranking.
	RecordBuzz(ctx context.Context, participantID, gameCode string) (rank int, already bool, err error)
	SpeedRanking(ctx context.Context, gameCode string) ([]SpeedRankEntry, error)
	ClearSpeedResults(ctx context.Context, gameCode string) error
}
