package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"quizdeck/internal/app"
	"quizdeck/internal/domain"
	pgstore "quizdeck/internal/infra/postgres"
	pgmigrations "quizdeck/internal/infra/postgres/migrations"
	"github.com/jackc/pgx/v4/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestQuizPlatformEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	applyMigrations(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	store := pgstore.NewStore(pool)
	service := app.NewQuizService(store, store)

	alice, err := service.Register(ctx, "alice", "hunter2", "alice@example.com")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	bob, err := service.Register(ctx, "bob", "pw", "bob@example.com")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	if _, err := service.Register(ctx, "alice", "x", ""); !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	user, err := service.Login(ctx, "alice", "hunter2")
	if err != nil || user.ID != alice {
		t.Fatalf("login: %v (%+v)", err, user)
	}
	if _, err := service.Login(ctx, "alice", "wrong"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for wrong password, got %v", err)
	}

	quiz := &domain.Quiz{Title: "Geography", Description: "Capitals"}
	prompts := []string{"Capital of France?", "Capital of Italy?", "Capital of Spain?", "Capital of Peru?"}
	for i, p := range prompts {
		quiz.AddQuestion(domain.Question{
			Text:               p,
			Choices:            [4]string{"Paris", "Rome", "Madrid", "Lima"},
			CorrectAnswerIndex: i,
		})
	}
	quizID, err := service.CreateQuiz(ctx, quiz, alice)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	loaded, err := service.Quiz(ctx, quizID)
	if err != nil {
		t.Fatalf("load quiz: %v", err)
	}
	if loaded.Title != "Geography" || loaded.CreatorName != "alice" || len(loaded.Questions) != 4 {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	for i, q := range loaded.Questions {
		want := quiz.Questions[i]
		if q.ID != want.ID || q.Text != want.Text || q.Choices != want.Choices ||
			q.CorrectAnswerIndex != want.CorrectAnswerIndex || q.Marks != want.Marks {
			t.Fatalf("question %d mismatch: %+v vs %+v", i, q, want)
		}
	}

	// alice 75 then 100, bob 75
	attempt, err := service.SubmitAttempt(ctx, alice, quizID, []int{0, 1, 3, 3})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.Score != 75 || attempt.Percentage != 75 || attempt.Grade() != "B" {
		t.Fatalf("unexpected attempt %+v", attempt)
	}
	if _, err := service.SubmitAttempt(ctx, alice, quizID, []int{0, 1, 2, 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.SubmitAttempt(ctx, bob, quizID, []int{0, 1, 3, 3}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	entries, err := service.Leaderboard(ctx, quizID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Username != "alice" || entries[0].BestScore != 100 || entries[0].Rank != 1 {
		t.Fatalf("expected alice first, got %+v", entries[0])
	}
	if entries[1].Username != "bob" || entries[1].BestScore != 75 || entries[1].Rank != 2 {
		t.Fatalf("expected bob second, got %+v", entries[1])
	}

	again, err := service.Leaderboard(ctx, quizID)
	if err != nil {
		t.Fatalf("leaderboard again: %v", err)
	}
	for i := range again {
		if again[i] != entries[i] {
			t.Fatalf("leaderboard not stable without new attempts: %+v vs %+v", again, entries)
		}
	}

	best, err := service.BestAttempt(ctx, alice, quizID)
	if err != nil || best.Score != 100 {
		t.Fatalf("best attempt: %v (%+v)", err, best)
	}

	history, err := service.History(ctx, alice)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].QuizTitle != "Geography" {
		t.Fatalf("unexpected history %+v", history)
	}

	// delete cascades through questions, attempts and answer detail
	if err := service.DeleteQuiz(ctx, quizID); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := service.Quiz(ctx, quizID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	history, err = service.History(ctx, alice)
	if err != nil {
		t.Fatalf("history after delete: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected attempts cascaded away, got %+v", history)
	}
}

func applyMigrations(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
