package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ArticleClassifier/internal/domain"
)

type memStore struct {
	mu    sync.Mutex
	files map[string][]domain.Article
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]domain.Article{}}
}

func (m *memStore) ReadArticles(path string) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	articles, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %s", path)
	}
	return append([]domain.Article(nil), articles...), nil
}

func (m *memStore) WriteArticles(path string, articles []domain.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]domain.Article(nil), articles...)
	return nil
}

type fakeSource struct {
	journal domain.Journal
	err     error
}

func (f fakeSource) FetchJournal(context.Context, string, []string, int) (domain.Journal, error) {
	return f.journal, f.err
}

type fakeJournalWriter struct {
	path, articlesPath string
}

func (f *fakeJournalWriter) WriteJournal(path string, _ domain.Journal, articlesPath string) error {
	f.path, f.articlesPath = path, articlesPath
	return nil
}

// scriptedGenerator answers by looking for a key inside the prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	answers map[string]string
	fail    map[string]bool
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	for key := range g.fail {
		if strings.Contains(prompt, "Abstract to classify: "+key+"\n") {
			return "", fmt.Errorf("upstream failure")
		}
	}
	for key, answer := range g.answers {
		if strings.Contains(prompt, "Abstract to classify: "+key+"\n") {
			return answer, nil
		}
	}
	return "???", nil
}

type fakeLedger struct {
	entries []domain.LedgerEntry
}

func (f *fakeLedger) SaveAll(_ context.Context, entries []domain.LedgerEntry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeLedger) Summary(context.Context) ([]domain.LabelCount, error) {
	return nil, nil
}

type fakeNotifier struct {
	digests []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.digests = append(f.digests, digest)
	return nil
}

type countingPacer struct {
	calls int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.calls++
	return ctx.Err()
}
