package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/ai-course-generator/config"
	"github.com/FACorreiaa/ai-course-generator/internal/api/auth"
	"github.com/FACorreiaa/ai-course-generator/internal/api/course"
	"github.com/FACorreiaa/ai-course-generator/internal/api/exam"
	"github.com/FACorreiaa/ai-course-generator/internal/api/generation"
	"github.com/FACorreiaa/ai-course-generator/internal/api/health"
	"github.com/FACorreiaa/ai-course-generator/internal/router"
	"github.com/FACorreiaa/ai-course-generator/internal/types"
)

var benchJWT = config.JWTConfig{SecretKey: "benchmark-secret", Issuer: "bench", Audience: "bench", TTL: time.Hour}

// benchCourse builds a course tree of topics x subtopics with every other lesson done.
func benchCourse(topics, subtopics int) types.CourseContent {
	c := types.CourseContent{MainTopic: "distributed systems"}
	for i := 0; i < topics; i++ {
		t := types.Topic{Title: fmt.Sprintf("Topic %d", i)}
		for j := 0; j < subtopics; j++ {
			t.Subtopics = append(t.Subtopics, types.Subtopic{
				Title:  fmt.Sprintf("Lesson %d.%d", i, j),
				Theory: strings.Repeat("theory ", 200),
				Done:   (i+j)%2 == 0,
			})
		}
		c.Topics = append(c.Topics, t)
	}
	return c
}

func benchToken(b *testing.B) string {
	b.Helper()
	claims := types.Claims{
		UserID: uuid.NewString(),
		Email:  "bench@example.com",
		Role:   types.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    benchJWT.Issuer,
			Audience:  jwt.ClaimStrings{benchJWT.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(benchJWT.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(benchJWT.SecretKey))
	if err != nil {
		b.Fatal(err)
	}
	return token
}

// BenchmarkCourseContentRoundTrip measures encoding and decoding a large content tree.
func BenchmarkCourseContentRoundTrip(b *testing.B) {
	content := benchCourse(10, 10)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		data, err := json.Marshal(content)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := types.ParseCourseContent(data, content.MainTopic); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkComputeProgress(b *testing.B) {
	content := benchCourse(10, 10)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = course.ComputeProgress(content, i%2 == 0)
	}
}

func BenchmarkParseSkeleton(b *testing.B) {
	raw, err := json.Marshal(benchCourse(5, 5))
	if err != nil {
		b.Fatal(err)
	}
	reply := "Here is your course:\n```json\n" + string(raw) + "\n```"
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := generation.ParseSkeleton(reply, "distributed systems", 5, 5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseQuestions(b *testing.B) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 10; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"question":"Q%d?","options":["one","two","three","four"],"answer":"one"}`, i)
	}
	sb.WriteString("]")
	raw := "```json\n" + sb.String() + "\n```"
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := exam.ParseQuestions(raw); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRateLimiterAllow(b *testing.B) {
	rl := generation.NewRateLimiter(1_000_000, 1_000_000, slog.New(slog.NewTextHandler(io.Discard, nil)))
	keys := make([]string, 64)
	for i := range keys {
		keys[i] = uuid.NewString()
	}
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			rl.Allow(keys[i%len(keys)])
			i++
		}
	})
}

// BenchmarkAuthenticatedRouting measures chi routing plus bearer token verification.
func BenchmarkAuthenticatedRouting(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := router.SetupRouter(&router.Config{
		HealthHandler:          health.NewHandlerImpl(nil, logger),
		AuthenticateMiddleware: auth.Authenticate(logger, benchJWT),
		AdminMiddleware:        auth.RequireAdmin(logger),
	})
	token := benchToken(b)
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
