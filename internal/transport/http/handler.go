package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
)

// Handler exposes the quiz platform over a pull-only JSON API. It is the
// application shell: it owns no state beyond the service reference and maps
// domain errors back onto benign HTTP responses.
type Handler struct {
	service *app.QuizService
}

func NewHandler(service *app.QuizService) *Handler {
	return &Handler{service: service}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.HandleFunc("GET /api/usernames/{name}", h.handleUsernameExists)
	mux.HandleFunc("GET /api/quizzes", h.handleListQuizzes)
	mux.HandleFunc("POST /api/quizzes", h.handleCreateQuiz)
	mux.HandleFunc("GET /api/quizzes/{id}", h.handleGetQuiz)
	mux.HandleFunc("DELETE /api/quizzes/{id}", h.handleDeleteQuiz)
	mux.HandleFunc("POST /api/quizzes/{id}/attempts", h.handleSubmitAttempt)
	mux.HandleFunc("GET /api/quizzes/{id}/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("GET /api/users/{id}/attempts", h.handleHistory)
	mux.HandleFunc("GET /api/users/{id}/quizzes/{quizID}/best", h.handleBestAttempt)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	id, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) handleUsernameExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.service.UsernameExists(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	var (
		quizzes []domain.Quiz
		err     error
	)
	if creator := r.URL.Query().Get("creator"); creator != "" {
		creatorID, perr := strconv.ParseInt(creator, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid creator id")
			return
		}
		quizzes, err = h.service.QuizzesByUser(r.Context(), creatorID)
	} else {
		quizzes, err = h.service.Quizzes(r.Context())
		// a deleted creator leaves the name blank; show "Unknown"
		for i := range quizzes {
			if quizzes[i].CreatorName == "" {
				quizzes[i].CreatorName = "Unknown"
			}
		}
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, quizzes)
}

type createQuizRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatorID   int64  `json:"creatorId"`
	Questions   []struct {
		Text               string                    `json:"text"`
		Choices            [domain.NumChoices]string `json:"choices"`
		CorrectAnswerIndex int                       `json:"correctAnswerIndex"`
	} `json:"questions"`
}

func (h *Handler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	quiz := &domain.Quiz{Title: req.Title, Description: req.Description}
	for _, q := range req.Questions {
		quiz.AddQuestion(domain.Question{
			Text:               q.Text,
			Choices:            q.Choices,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		})
	}

	id, err := h.service.CreateQuiz(r.Context(), quiz, req.CreatorID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":                        id,
		"marksPerQuestion":          quiz.MarksPerQuestion(),
		"canDistributeMarksEqually": quiz.CanDistributeMarksEqually(),
	})
}

func (h *Handler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quiz, err := h.service.Quiz(r.Context(), quizID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteQuiz(r.Context(), quizID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type submitAttemptRequest struct {
	UserID  int64 `json:"userId"`
	Answers []int `json:"answers"`
}

type attemptResponse struct {
	domain.QuizAttempt
	Grade string `json:"grade"`
}

func (h *Handler) handleSubmitAttempt(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	attempt, err := h.service.SubmitAttempt(r.Context(), req.UserID, quizID, req.Answers)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, attemptResponse{QuizAttempt: attempt, Grade: attempt.Grade()})
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	quizID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	entries, err := h.service.Leaderboard(r.Context(), quizID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	type row struct {
		domain.LeaderboardEntry
		Medal string `json:"medal"`
	}
	rows := make([]row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, row{LeaderboardEntry: e, Medal: e.Medal()})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	attempts, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	rows := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		rows = append(rows, attemptResponse{QuizAttempt: a, Grade: a.Grade()})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) handleBestAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	quizID, ok := pathID(w, r, "quizID")
	if !ok {
		return
	}
	attempt, err := h.service.BestAttempt(r.Context(), userID, quizID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptResponse{QuizAttempt: attempt, Grade: attempt.Grade()})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, domain.ErrAnswerCountMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
