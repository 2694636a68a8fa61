package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateAdmin(ctx context.Context, username, name, passwordHash string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admins (username, name, password_hash)
		VALUES (?, ?, ?)
		RETURNING id
	`, username, name, passwordHash).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrConflict
	}
	return id, err
}

func (s *SQLiteStore) AdminByUsername(ctx context.Context, username string) (adminRecord, error) {
	var a adminRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, name, password_hash FROM admins WHERE username = ?
	`, username).Scan(&a.ID, &a.Username, &a.Name, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *SQLiteStore) CreateAdminSession(ctx context.Context, adminID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_sessions (admin_id)
		VALUES (?)
		RETURNING id
	`, adminID).Scan(&id)
	return id, err
}

func (s *SQLiteStore) AdminFromSession(ctx context.Context, sessionID string) (adminSession, error) {
	var sess adminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT a.id, a.username, a.name
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?
	`, sessionID).Scan(&sess.AdminID, &sess.Username, &sess.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return adminSession{}, errNoAdminSession
	}
	return sess, err
}

func (s *SQLiteStore) DeleteAdminSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *SQLiteStore) AdminGameCode(ctx context.Context, adminID string) (string, error) {
	var code sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT game_code FROM admins WHERE id = ?
	`, adminID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return code.String, err
}

func (s *SQLiteStore) SetAdminGameCode(ctx context.Context, adminID, code string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE admins SET game_code = ? WHERE id = ?
	`, code, adminID)
	return err
}

func (s *SQLiteStore) AdminIDByGameCode(ctx context.Context, code string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM admins WHERE game_code = ?
	`, code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

func (s *SQLiteStore) GameStarted(ctx context.Context, adminID string) (bool, error) {
	var started int
	err := s.db.QueryRowContext(ctx, `
		SELECT game_started FROM admins WHERE id = ?
	`, adminID).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return started == 1, err
}

func (s *SQLiteStore) SetGameStarted(ctx context.Context, adminID string, started bool) error {
	startedInt := 0
	if started {
		startedInt = 1
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE admins SET game_started = ? WHERE id = ?
	`, startedInt, adminID)
	return err
}

func (s *SQLiteStore) GameStartedByCode(ctx context.Context, code string) (bool, error) {
	var started int
	err := s.db.QueryRowContext(ctx, `
		SELECT game_started FROM admins WHERE game_code = ?
	`, code).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return started == 1, err
}

func (s *SQLiteStore) CreateParticipant(ctx context.Context, username, passwordHash, tel string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (username, password_hash, tel)
		VALUES (?, ?, ?)
	`, username, passwordHash, tel)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLiteStore) ParticipantByUsername(ctx context.Context, username string) (participantRecord, error) {
	var p participantRecord
	var code sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, tel, game_code
		FROM participants
		WHERE username = ?
	`, username).Scan(&p.ID, &p.Username, &p.PasswordHash, &p.Tel, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrNotFound
	}
	p.GameCode = code.String
	return p, err
}

func (s *SQLiteStore) ParticipantGameCode(ctx context.Context, participantID string) (string, error) {
	var code sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT game_code FROM participants WHERE id = ?
	`, participantID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return code.String, err
}

func (s *SQLiteStore) CreateParticipantSession(ctx context.Context, participantID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO participant_sessions (participant_id)
		VALUES (?)
		RETURNING id
	`, participantID).Scan(&id)
	return id, err
}

func (s *SQLiteStore) ParticipantFromSession(ctx context.Context, token string) (participantSession, error) {
	var sess participantSession
	var code sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.username, p.tel, p.game_code
		FROM participant_sessions s
		JOIN participants p ON p.id = s.participant_id
		WHERE s.id = ?
	`, token).Scan(&sess.ParticipantID, &sess.Username, &sess.Tel, &code)
	if errors.Is(err, sql.ErrNoRows) {
		return participantSession{}, errNoSession
	}
	sess.GameCode = code.String
	return sess, err
}

func (s *SQLiteStore) DeleteParticipantSessions(ctx context.Context, participantID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM participant_sessions WHERE participant_id = ?
	`, participantID)
	return err
}

func (s *SQLiteStore) SetParticipantGameCode(ctx context.Context, participantID, code string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE participants SET game_code = ? WHERE id = ?
	`, code, participantID)
	return err
}

func (s *SQLiteStore) ClearParticipantGame(ctx context.Context, participantID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE participants SET game_code = NULL, online_since = NULL WHERE id = ?
	`, participantID)
	return err
}

func (s *SQLiteStore) MarkOnline(ctx context.Context, participantID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE participants
		SET online_since = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')
		WHERE id = ?
	`, participantID)
	return err
}

func (s *SQLiteStore) ListOnline(ctx context.Context, gameCode string) ([]ConnectedUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, tel
		FROM participants
		WHERE online_since IS NOT NULL AND game_code = ?
		ORDER BY online_since
	`, gameCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []ConnectedUser{}
	for rows.Next() {
		var u ConnectedUser
		if err := rows.Scan(&u.ID, &u.Tel); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) ForceOffline(ctx context.Context, gameCode string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE participants SET online_since = NULL WHERE game_code = ?
	`, gameCode)
	return err
}

func (s *SQLiteStore) CreateQuiz(ctx context.Context, adminID string, q QuizInput) (int, error) {
	var no int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (admin_id, group_name, title, contents, option_kind,
			option1, option2, option3, option4, answer, image_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING no
	`, adminID, q.Group, q.Title, q.Contents, q.OptionKind,
		nullable(q.Option1), nullable(q.Option2), nullable(q.Option3), nullable(q.Option4),
		q.Answer, nullable(q.ImageURL)).Scan(&no)
	return no, err
}

func (s *SQLiteStore) ListQuizzes(ctx context.Context, adminID string) ([]Quiz, error) {
	return s.queryQuizzes(ctx, `
		SELECT no, group_name, title, contents, option_kind,
			option1, option2, option3, option4, answer, image_url
		FROM quizzes
		WHERE admin_id = ?
		ORDER BY group_name, no
	`, adminID)
}

func (s *SQLiteStore) QuizzesByGroup(ctx context.Context, adminID, group string) ([]Quiz, error) {
	return s.queryQuizzes(ctx, `
		SELECT no, group_name, title, contents, option_kind,
			option1, option2, option3, option4, answer, image_url
		FROM quizzes
		WHERE admin_id = ? AND group_name = ?
		ORDER BY no
	`, adminID, group)
}

func (s *SQLiteStore) queryQuizzes(ctx context.Context, query string, args ...any) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []Quiz{}
	for rows.Next() {
		var q Quiz
		var o1, o2, o3, o4, img sql.NullString
		if err := rows.Scan(&q.No, &q.Group, &q.Title, &q.Contents, &q.OptionKind,
			&o1, &o2, &o3, &o4, &q.Answer, &img); err != nil {
			return nil, err
		}
		q.Option1, q.Option2, q.Option3, q.Option4 = o1.String, o2.String, o3.String, o4.String
		q.ImageURL = img.String
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (s *SQLiteStore) QuizRefs(ctx context.Context, adminID string) ([]QuizRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT no, group_name FROM quizzes WHERE admin_id = ? ORDER BY group_name, no
	`, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []QuizRef{}
	for rows.Next() {
		var ref QuizRef
		if err := rows.Scan(&ref.No, &ref.Group); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) CountQuizzes(ctx context.Context, adminID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quizzes WHERE admin_id = ?
	`, adminID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) UpdateQuiz(ctx context.Context, adminID string, no int, q QuizInput) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE quizzes
		SET group_name = ?, title = ?, contents = ?, option_kind = ?,
			option1 = ?, option2 = ?, option3 = ?, option4 = ?, answer = ?,
			image_url = COALESCE(?, image_url)
		WHERE no = ? AND admin_id = ?
	`, q.Group, q.Title, q.Contents, q.OptionKind,
		nullable(q.Option1), nullable(q.Option2), nullable(q.Option3), nullable(q.Option4),
		q.Answer, nullable(q.ImageURL), no, adminID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteQuiz(ctx context.Context, adminID string, no int) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM quizzes WHERE no = ? AND admin_id = ?
	`, no, adminID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecordSolve(ctx context.Context, participantID string, quizNo int) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_history (participant_id, quiz_no)
		VALUES (?, ?)
		ON CONFLICT (participant_id, quiz_no) DO NOTHING
	`, participantID, quizNo)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}

func (s *SQLiteStore) SolvedQuizNos(ctx context.Context, participantID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quiz_no FROM quiz_history WHERE participant_id = ? ORDER BY quiz_no
	`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nos := []int{}
	for rows.Next() {
		var no int
		if err := rows.Scan(&no); err != nil {
			return nil, err
		}
		nos = append(nos, no)
	}
	return nos, rows.Err()
}

func (s *SQLiteStore) CountSolved(ctx context.Context, participantID, adminID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM quiz_history h
		JOIN quizzes q ON q.no = h.quiz_no
		WHERE h.participant_id = ? AND q.admin_id = ?
	`, participantID, adminID).Scan(&count)
	return count, err
}

func (s *SQLiteStore) ClearProgress(ctx context.Context, gameCode string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM quiz_history
		WHERE participant_id IN (SELECT id FROM participants WHERE game_code = ?)
	`, gameCode); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM mission_completions
		WHERE participant_id IN (SELECT id FROM participants WHERE game_code = ?)
	`, gameCode); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) RecordMissionComplete(ctx context.Context, participantID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO mission_completions (participant_id)
		VALUES (?)
		ON CONFLICT (participant_id) DO NOTHING
	`, participantID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 0, nil
}

func (s *SQLiteStore) MissionRanking(ctx context.Context, gameCode string) ([]MissionRankEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.username, p.tel, mc.completed_at
		FROM mission_completions mc
		JOIN participants p ON p.id = mc.participant_id
		WHERE p.game_code = ?
		ORDER BY mc.completed_at
	`, gameCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []MissionRankEntry{}
	for rows.Next() {
		var e MissionRankEntry
		if err := rows.Scan(&e.ID, &e.Tel, &e.CompletedAt); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecordBuzz assigns the next speed-game rank for gameCode. The max-read and
// insert happen in a single statement, so SQLite's writer lock makes
// concurrent buzzes linearizable: two buzzes can never observe the same max.
func (s *SQLiteStore) RecordBuzz(ctx context.Context, participantID, gameCode string) (int, bool, error) {
	var rank int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO speed_results (participant_id, game_code, rank_num)
		VALUES (?, ?, COALESCE((SELECT MAX(rank_num) FROM speed_results WHERE game_code = ?), 0) + 1)
		ON CONFLICT (participant_id, game_code) DO NOTHING
		RETURNING rank_num
	`, participantID, gameCode, gameCode).Scan(&rank)
	if err == nil {
		return rank, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	// Conflict: the participant already holds a rank. Return it unchanged.
	err = s.db.QueryRowContext(ctx, `
		SELECT rank_num FROM speed_results WHERE participant_id = ? AND game_code = ?
	`, participantID, gameCode).Scan(&rank)
	return rank, true, err
}

func (s *SQLiteStore) SpeedRanking(ctx context.Context, gameCode string) ([]SpeedRankEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.rank_num, p.username, r.clicked_at
		FROM speed_results r
		JOIN participants p ON p.id = r.participant_id
		WHERE r.game_code = ?
		ORDER BY r.rank_num
	`, gameCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []SpeedRankEntry{}
	for rows.Next() {
		var e SpeedRankEntry
		if err := rows.Scan(&e.Rank, &e.ID, &e.ClickedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) ClearSpeedResults(ctx context.Context, gameCode string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM speed_results WHERE game_code = ?
	`, gameCode)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
