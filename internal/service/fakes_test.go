package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"lessonforge/internal/model"
)

type fakeLessonRepo struct {
	mu       sync.Mutex
	count    int
	countErr error
	saveErr  error
	saved    []*model.Lesson
}

func (r *fakeLessonRepo) CountLessonsByUserID(context.Context, string) (int, error) {
	return r.count, r.countErr
}

func (r *fakeLessonRepo) CreateLesson(_ context.Context, l *model.Lesson) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, l)
	return nil
}

type fakeEntitlements struct {
	status EntitlementStatus
	err    error
	calls  int
}

func (f *fakeEntitlements) Check(context.Context, string) (EntitlementStatus, error) {
	f.calls++
	return f.status, f.err
}

// fakeText answers script prompts and quiz prompts differently so tests can
// tell the two calls apart.
type fakeText struct {
	prompts   []string
	maxTokens []int
	failOn    string
}

func (f *fakeText) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.maxTokens = append(f.maxTokens, maxTokens)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return "", errors.New("completion service unavailable")
	}
	if strings.HasPrefix(prompt, "Create 3 multiple choice questions") {
		return "Q1? A) B) C)", nil
	}
	return "Today we learn about volcanoes.", nil
}

type fakeVideos struct {
	err     error
	scripts []string
}

func (f *fakeVideos) Generate(_ context.Context, script string) (*Video, error) {
	f.scripts = append(f.scripts, script)
	if f.err != nil {
		return nil, f.err
	}
	return &Video{VideoID: "vid-1", HostedURL: "https://videos.example/vid-1", Polls: 2}, nil
}

type fakeImages struct {
	images  []string
	prompts []string
	counts  []int
}

func (f *fakeImages) Generate(_ context.Context, prompt string, count int) ([]string, error) {
	f.prompts = append(f.prompts, prompt)
	f.counts = append(f.counts, count)
	return f.images, nil
}

type fakePublisher struct {
	published []*model.Lesson
	err       error
}

func (p *fakePublisher) PublishLessonGenerated(_ context.Context, l *model.Lesson) (string, error) {
	p.published = append(p.published, l)
	return "msg-1", p.err
}

func (p *fakePublisher) Close() error { return nil }
