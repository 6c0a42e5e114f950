package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/speckled/api/schemas"
	"github.com/xkilldash9x/speckled/internal/config"
)

// taggedPage is what the observer's tagging script returns for the fake page.
const taggedPage = `{"elements":[{"id":0,"kind":"clickable"}],"html":"<html><body><h1>Todos</h1><button data-speckled-id=\"0\" data-speckled-kind=\"clickable\">Add</button></body></html>","url":"http://app.test/","title":"Todos"}`

// MockPage is a schemas.Page whose Evaluate answers the observer with a
// fixed tagged document.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}
func (m *MockPage) Click(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}
func (m *MockPage) DoubleClick(ctx context.Context, loc schemas.Locator) error {
	return m.Called(ctx, loc).Error(0)
}
func (m *MockPage) Press(ctx context.Context, loc schemas.Locator, key string) error {
	return m.Called(ctx, loc, key).Error(0)
}
func (m *MockPage) Fill(ctx context.Context, loc schemas.Locator, text string) error {
	return m.Called(ctx, loc, text).Error(0)
}
func (m *MockPage) Evaluate(ctx context.Context, script string, res any) error {
	return jsoniter.Unmarshal([]byte(taggedPage), res)
}
func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}
func (m *MockPage) Close() error { return nil }

func newMockPage() *MockPage {
	p := new(MockPage)
	p.On("Navigate", mock.Anything, mock.Anything).Return(nil).Maybe()
	p.On("Click", mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

// fakeBrowser hands out fresh mock pages and records shutdown.
type fakeBrowser struct {
	mu     sync.Mutex
	pages  []*MockPage
	closed bool
}

func (f *fakeBrowser) NewPage(ctx context.Context) (schemas.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := newMockPage()
	f.pages = append(f.pages, p)
	return p, nil
}

func (f *fakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// scriptedOracle answers by conversation length: one click, then the
// given completion.
func scriptedOracle(completion string) schemas.Oracle {
	return schemas.OracleFunc(func(ctx context.Context, conv []schemas.Entry) (string, error) {
		if len(conv) <= 3 {
			return `{"type":"click","id":0}`, nil
		}
		return completion, nil
	})
}

// stubComponents swaps the oracle and browser seams for the duration of
// the test.
func stubComponents(t *testing.T, oracle schemas.Oracle) *fakeBrowser {
	t.Helper()
	origOracle, origBrowser := newOracle, newBrowser
	t.Cleanup(func() { newOracle, newBrowser = origOracle, origBrowser })

	b := &fakeBrowser{}
	newOracle = func(context.Context, config.LLMConfig, *zap.Logger) (schemas.Oracle, error) {
		return oracle, nil
	}
	newBrowser = func(*zap.Logger, config.BrowserConfig) browserSession { return b }
	return b
}

// executeCommand runs a fresh root command and captures its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeResult(t *testing.T, out string) schemas.SpecResult {
	t.Helper()
	var res schemas.SpecResult
	if err := jsoniter.NewDecoder(strings.NewReader(out)).Decode(&res); err != nil {
		t.Fatalf("output is not a result document: %v\n%s", err, out)
	}
	return res
}
