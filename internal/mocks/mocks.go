// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/enroll-cli/internal/accounts"
	"github.com/xkilldash9x/enroll-cli/internal/browser"
	"github.com/xkilldash9x/enroll-cli/internal/journal"
	"github.com/xkilldash9x/enroll-cli/internal/workflow"
)

// -- Browser Driver Mock --

// MockDriver mocks browser.Driver.
type MockDriver struct {
	mock.Mock
}

var _ browser.Driver = (*MockDriver)(nil)

func (m *MockDriver) Launch(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockDriver) WaitForElement(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockDriver) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	return m.Called(ctx, selector, text, delay).Error(0)
}

func (m *MockDriver) SelectOption(ctx context.Context, selector, value string) error {
	return m.Called(ctx, selector, value).Error(0)
}

func (m *MockDriver) WaitUntilEnabled(ctx context.Context, selector string, interval time.Duration) error {
	return m.Called(ctx, selector, interval).Error(0)
}

func (m *MockDriver) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	args := m.Called(ctx)
	var cookies []browser.Cookie
	if c := args.Get(0); c != nil {
		cookies = c.([]browser.Cookie)
	}
	return cookies, args.Error(1)
}

func (m *MockDriver) ClearCookies(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Workflow Mock --

// MockWorkflow mocks the register/authenticate engine.
type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) Register(ctx context.Context, rec accounts.Record) workflow.Result {
	return m.Called(ctx, rec).Get(0).(workflow.Result)
}

func (m *MockWorkflow) Authenticate(ctx context.Context, login, password string) workflow.Result {
	return m.Called(ctx, login, password).Get(0).(workflow.Result)
}

// -- Queue Mock --

// MockQueue mocks the account store transitions used by the runner.
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) MoveToRegistered(login string) error {
	return m.Called(login).Error(0)
}

func (m *MockQueue) AppendToken(login, token string) error {
	return m.Called(login, token).Error(0)
}

// -- Prompter Mock --

// MockPrompter mocks prompt.Prompter.
type MockPrompter struct {
	mock.Mock
}

func (m *MockPrompter) Confirm(ctx context.Context, message string) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

func (m *MockPrompter) ChooseOne(ctx context.Context, message string, options []string) (string, error) {
	args := m.Called(ctx, message, options)
	return args.String(0), args.Error(1)
}

func (m *MockPrompter) NumberInput(ctx context.Context, message string, def int) (int, error) {
	args := m.Called(ctx, message, def)
	return args.Int(0), args.Error(1)
}

func (m *MockPrompter) TextInput(ctx context.Context, message string) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

// -- Journal Mock --

// MockJournal mocks journal.Journal.
type MockJournal struct {
	mock.Mock
}

var _ journal.Journal = (*MockJournal)(nil)

func (m *MockJournal) Record(ctx context.Context, e journal.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockJournal) Close() error {
	return m.Called().Error(0)
}
