package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "QuizRally API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the QuizRally event platform.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/echo
	getWSEcho, _ := r.NewOperationContext(http.MethodGet, "/ws/echo")
	getWSEcho.SetSummary("WebSocket echo")
	getWSEcho.SetDescription("Upgrades to a WebSocket connection that echoes messages back.")
	getWSEcho.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSEcho)

	// POST /api/user/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/user/register")
	postRegister.SetSummary("Register participant")
	postRegister.SetDescription("Creates a participant account. Usernames are unique.")
	postRegister.AddReqStructure(UserRegisterRequest{})
	postRegister.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /api/user/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/user/login")
	postLogin.SetSummary("Participant login")
	postLogin.SetDescription("Authenticate with username and password. Returns a Bearer token.")
	postLogin.AddReqStructure(UserLoginRequest{})
	postLogin.AddRespStructure(UserLoginResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/user/logout
	postUserLogout, _ := r.NewOperationContext(http.MethodPost, "/api/user/logout")
	postUserLogout.SetSummary("Participant logout")
	postUserLogout.SetDescription("Detaches the participant from their game and clears their sessions.")
	postUserLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postUserLogout)

	// GET /api/user/me
	getUserMe, _ := r.NewOperationContext(http.MethodGet, "/api/user/me")
	getUserMe.SetSummary("Current participant")
	getUserMe.SetDescription("Returns the authenticated participant. Requires Bearer token.")
	getUserMe.AddRespStructure(UserInfo{}, openapi.WithHTTPStatus(http.StatusOK))
	getUserMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getUserMe)

	// POST /api/user/verify-code
	postVerify, _ := r.NewOperationContext(http.MethodPost, "/api/user/verify-code")
	postVerify.SetSummary("Join a game")
	postVerify.SetDescription("Attaches the participant to the game identified by the 4-digit code.")
	postVerify.AddReqStructure(VerifyCodeRequest{})
	postVerify.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postVerify)

	// GET /api/user/connected
	getConnected, _ := r.NewOperationContext(http.MethodGet, "/api/user/connected")
	getConnected.SetSummary("Online roster")
	getConnected.SetDescription("Returns the online participants for the caller's game code.")
	getConnected.AddRespStructure([]ConnectedUser{}, openapi.WithHTTPStatus(http.StatusOK))
	getConnected.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getConnected)

	// POST /api/user/force-logout
	postForce, _ := r.NewOperationContext(http.MethodPost, "/api/user/force-logout")
	postForce.SetSummary("Force logout")
	postForce.SetDescription("Kicks every participant in the admin's game. Requires admin_session cookie.")
	postForce.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postForce.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postForce.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postForce)

	// POST /api/admin/login
	postAdminLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postAdminLogin.SetSummary("Admin login")
	postAdminLogin.SetDescription("Authenticate with username and password. Sets admin_session cookie.")
	postAdminLogin.AddReqStructure(AdminLoginRequest{})
	postAdminLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdminLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postAdminLogin)

	// POST /api/admin/logout
	postAdminLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postAdminLogout.SetSummary("Admin logout")
	postAdminLogout.SetDescription("Clears admin session and cookie.")
	postAdminLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postAdminLogout)

	// GET /api/admin/me
	getAdminMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getAdminMe.SetSummary("Current admin")
	getAdminMe.SetDescription("Returns the currently authenticated admin. Requires admin_session cookie.")
	getAdminMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getAdminMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getAdminMe)

	// POST /api/admin/generate-code
	postGenCode, _ := r.NewOperationContext(http.MethodPost, "/api/admin/generate-code")
	postGenCode.SetSummary("Generate game code")
	postGenCode.SetDescription("Assigns the admin a fresh 4-digit join code. Requires admin_session cookie.")
	postGenCode.AddRespStructure(GameCodeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGenCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postGenCode)

	// GET /api/admin/code
	getCode, _ := r.NewOperationContext(http.MethodGet, "/api/admin/code")
	getCode.SetSummary("Current game code")
	getCode.SetDescription("Returns the admin's game code, null if not generated. Requires admin_session cookie.")
	getCode.AddRespStructure(GameCodeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getCode)

	// POST /api/quiz/register
	postQuiz, _ := r.NewOperationContext(http.MethodPost, "/api/quiz/register")
	postQuiz.SetSummary("Register quizzes")
	postQuiz.SetDescription("Bulk-registers quizzes as JSON, or a single quiz with image as multipart form. Requires admin_session cookie.")
	postQuiz.AddReqStructure(QuizRegisterRequest{})
	postQuiz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postQuiz)

	// GET /api/quiz
	getQuizzes, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/")
	getQuizzes.SetSummary("List quizzes")
	getQuizzes.SetDescription("Returns all quizzes owned by the admin. Requires admin_session cookie.")
	getQuizzes.AddRespStructure([]Quiz{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuizzes.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getQuizzes)

	// PUT /api/quiz/{no}
	putQuiz, _ := r.NewOperationContext(http.MethodPut, "/api/quiz/{no}")
	putQuiz.SetSummary("Update quiz")
	putQuiz.SetDescription("Updates one of the admin's quizzes. Requires admin_session cookie.")
	putQuiz.AddReqStructure(QuizInput{})
	putQuiz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	putQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	putQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(putQuiz)

	// DELETE /api/quiz/{no}
	delQuiz, _ := r.NewOperationContext(http.MethodDelete, "/api/quiz/{no}")
	delQuiz.SetSummary("Delete quiz")
	delQuiz.SetDescription("Deletes one of the admin's quizzes. Requires admin_session cookie.")
	delQuiz.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	delQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	delQuiz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(delQuiz)

	// POST /api/quiz/solve
	postSolve, _ := r.NewOperationContext(http.MethodPost, "/api/quiz/solve")
	postSolve.SetSummary("Record solved quiz")
	postSolve.SetDescription("Marks a quiz as solved for the participant. Idempotent. Requires Bearer token.")
	postSolve.AddReqStructure(SolveRequest{})
	postSolve.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postSolve.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postSolve)

	// GET /api/quiz/dashboard
	getDashboard, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/dashboard")
	getDashboard.SetSummary("Quiz dashboard")
	getDashboard.SetDescription("Returns groups, structure, and solved progress for the participant's game. Requires Bearer token.")
	getDashboard.AddRespStructure(DashboardResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getDashboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getDashboard.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getDashboard)

	// GET /api/quiz/structure
	getStructure, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/structure")
	getStructure.SetSummary("Quiz structure")
	getStructure.SetDescription("Returns the group → quiz-number map for the participant's game. Requires Bearer token.")
	getStructure.AddRespStructure(map[string][]int{}, openapi.WithHTTPStatus(http.StatusOK))
	getStructure.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getStructure)

	// GET /api/quiz/groups
	getGroups, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/groups")
	getGroups.SetSummary("Quiz groups")
	getGroups.SetDescription("Returns the quiz group names for the participant's game. Requires Bearer token.")
	getGroups.AddRespStructure([]string{}, openapi.WithHTTPStatus(http.StatusOK))
	getGroups.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getGroups)

	// GET /api/quiz/group/{group}
	getGroup, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/group/{group}")
	getGroup.SetSummary("Quizzes by group")
	getGroup.SetDescription("Returns the quizzes of one group in the participant's game. Requires Bearer token.")
	getGroup.AddRespStructure([]Quiz{}, openapi.WithHTTPStatus(http.StatusOK))
	getGroup.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getGroup)

	// GET /api/quiz/progress
	getProgress, _ := r.NewOperationContext(http.MethodGet, "/api/quiz/progress")
	getProgress.SetSummary("Solved progress")
	getProgress.SetDescription("Returns the quiz numbers the participant has solved. Requires Bearer token.")
	getProgress.AddRespStructure(ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProgress.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getProgress)

	// DELETE /api/quiz/history
	delHistory, _ := r.NewOperationContext(http.MethodDelete, "/api/quiz/history")
	delHistory.SetSummary("Reset progress")
	delHistory.SetDescription("Wipes quiz progress and mission completions for the admin's game and broadcasts a reset. Requires admin_session cookie.")
	delHistory.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	delHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	delHistory.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(delHistory)

	// GET /api/game/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/game/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream scoped to the caller's game code. Pass token as query parameter for EventSource clients.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getEvents)

	// POST /api/game/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/game/start")
	postStart.SetSummary("Start game")
	postStart.SetDescription("Marks the admin's game as started and broadcasts start. Requires admin_session cookie.")
	postStart.AddRespStructure(GameStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStart)

	// POST /api/game/stop
	postStop, _ := r.NewOperationContext(http.MethodPost, "/api/game/stop")
	postStop.SetSummary("Stop game")
	postStop.SetDescription("Marks the admin's game as stopped and broadcasts stop. Requires admin_session cookie.")
	postStop.AddRespStructure(GameStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postStop)

	// GET /api/game/status
	getStatus, _ := r.NewOperationContext(http.MethodGet, "/api/game/status")
	getStatus.SetSummary("Game status")
	getStatus.SetDescription("Returns whether the caller's game is started.")
	getStatus.AddRespStructure(GameStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getStatus.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getStatus)

	// POST /api/game/speed/buzz
	postBuzz, _ := r.NewOperationContext(http.MethodPost, "/api/game/speed/buzz")
	postBuzz.SetSummary("Speed game buzz")
	postBuzz.SetDescription("Claims the next rank in the speed game. A repeat buzz returns the frozen rank. Requires Bearer token.")
	postBuzz.AddRespStructure(BuzzResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postBuzz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postBuzz.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postBuzz)

	// GET /api/game/speed/ranking
	getSpeedRanking, _ := r.NewOperationContext(http.MethodGet, "/api/game/speed/ranking")
	getSpeedRanking.SetSummary("Speed game ranking")
	getSpeedRanking.SetDescription("Returns the speed-game ranking for the caller's game code.")
	getSpeedRanking.AddRespStructure([]SpeedRankEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	getSpeedRanking.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getSpeedRanking)

	// POST /api/game/speed/reset
	postSpeedReset, _ := r.NewOperationContext(http.MethodPost, "/api/game/speed/reset")
	postSpeedReset.SetSummary("Reset speed game")
	postSpeedReset.SetDescription("Clears speed-game results for the admin's game and broadcasts a reset. Requires admin_session cookie.")
	postSpeedReset.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postSpeedReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postSpeedReset.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postSpeedReset)

	// POST /api/game/mission/complete
	postMission, _ := r.NewOperationContext(http.MethodPost, "/api/game/mission/complete")
	postMission.SetSummary("Complete mission")
	postMission.SetDescription("Records mission completion once all quizzes are solved and broadcasts the ranking. Requires Bearer token.")
	postMission.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postMission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postMission.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postMission)

	// GET /api/game/mission/ranking
	getMissionRanking, _ := r.NewOperationContext(http.MethodGet, "/api/game/mission/ranking")
	getMissionRanking.SetSummary("Mission ranking")
	getMissionRanking.SetDescription("Returns the mission ranking for the caller's game code.")
	getMissionRanking.AddRespStructure([]MissionRankEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	getMissionRanking.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMissionRanking)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
